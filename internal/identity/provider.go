// Package identity tracks who is signed in.
//
// Sessions live in a signed JWT cookie. Every sign-in and sign-out is
// published on a Bus so interested parties (open feed pages, other server
// instances) can react through an explicit subscription.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/theoryboard/theoryboard/internal/model"
)

const CookieName = "auth_token"

var ErrInvalidToken = errors.New("invalid token")

type Provider struct {
	secret []byte
	expiry time.Duration
	secure bool
	bus    Bus
	now    func() time.Time
}

func NewProvider(jwtSecret string, jwtExpiry time.Duration, isProduction bool, bus Bus) *Provider {
	return &Provider{
		secret: []byte(jwtSecret),
		expiry: jwtExpiry,
		secure: isProduction,
		bus:    bus,
		now:    time.Now,
	}
}

// CurrentSession reads the session cookie. A missing, expired or tampered
// token yields a session that is not live.
func (p *Provider) CurrentSession(r *http.Request) model.Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return model.Session{}
	}

	userID, err := p.VerifyJWT(cookie.Value)
	if err != nil {
		return model.Session{}
	}

	return model.Session{UserID: userID}
}

// HasInvalidCookie reports whether a session cookie is present but unusable.
func (p *Provider) HasInvalidCookie(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	_, err = p.VerifyJWT(cookie.Value)
	return err != nil
}

func (p *Provider) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	token, expiresAt, err := p.GenerateJWT(userID)
	if err != nil {
		return fmt.Errorf("failed to generate JWT: %w", err)
	}

	p.setCookie(w, token, expiresAt)
	p.publish(r.Context(), SessionEvent{Kind: SignedIn, UserID: userID, At: p.now()})
	return nil
}

func (p *Provider) SignOut(w http.ResponseWriter, r *http.Request) {
	session := p.CurrentSession(r)
	p.ClearCookie(w)

	if session.Live() {
		p.publish(r.Context(), SessionEvent{Kind: SignedOut, UserID: session.UserID, At: p.now()})
	}
}

// Subscribe delivers session events until the returned cancel func is called
// or ctx is done.
func (p *Provider) Subscribe(ctx context.Context) (<-chan SessionEvent, func()) {
	return p.bus.Subscribe(ctx)
}

func (p *Provider) publish(ctx context.Context, event SessionEvent) {
	err := p.bus.Publish(context.WithoutCancel(ctx), event)
	if err != nil {
		slog.Warn("failed to publish session event", "error", err, "kind", event.Kind, "user_id", event.UserID)
	}
}

func (p *Provider) GenerateJWT(userID string) (string, time.Time, error) {
	now := p.now()
	expiresAt := now.Add(p.expiry)

	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// VerifyJWT returns the user id carried by a valid token.
func (p *Provider) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}

	return userID, nil
}

func (p *Provider) setCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (p *Provider) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
