package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/theoryboard/theoryboard/internal/config"
	"github.com/theoryboard/theoryboard/internal/ctxkeys"
	"github.com/theoryboard/theoryboard/internal/identity"
	"github.com/theoryboard/theoryboard/internal/service"
	"github.com/theoryboard/theoryboard/internal/ui"
	"github.com/theoryboard/theoryboard/internal/ui/pages"
	"github.com/theoryboard/theoryboard/internal/validation"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const oauthStateCookie = "oauth_state"

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	githubAPIURL      = "https://api.github.com"
)

const oauthFailed = "OAuth authentication failed. Please try again."

type authHandler struct {
	authService       *service.AuthService
	sessions          *identity.Provider
	googleOAuthConfig *oauth2.Config
	githubOAuthConfig *oauth2.Config
	googleUserInfoURL string
	githubAPIURL      string
}

func NewAuthHandler(authService *service.AuthService, sessions *identity.Provider, cfg *config.Config) *authHandler {
	return &authHandler{
		authService: authService,
		sessions:    sessions,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/google/callback",
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		githubOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/github/callback",
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		googleUserInfoURL: googleUserInfoURL,
		githubAPIURL:      githubAPIURL,
	}
}

func (h *authHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.Login(pages.AuthProps{}))
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		ui.Render(w, r, pages.Login(pages.AuthProps{Error: "Email and password are required", Email: email}))
		return
	}

	account, err := h.authService.Login(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			slog.Warn("password login failed", "error", err, "email", email)
			ui.Render(w, r, pages.Login(pages.AuthProps{Error: "Invalid email or password", Email: email}))
		case errors.Is(err, service.ErrPasswordless):
			ui.Render(w, r, pages.Login(pages.AuthProps{Error: "This account signs in with Google or GitHub", Email: email}))
		default:
			slog.Error("password login failed", "error", err, "email", email)
			ui.Render(w, r, pages.Login(pages.AuthProps{Error: "An error occurred. Please try again.", Email: email}))
		}
		return
	}

	h.signIn(w, r, account.UserID, "password")
}

func (h *authHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	err := validation.ValidatePassword(password)
	if err != nil {
		ui.Render(w, r, pages.Login(pages.AuthProps{Error: capitalize(err.Error()), Name: name, Email: email}))
		return
	}

	account, err := h.authService.SignUp(r.Context(), name, email, password)
	if err != nil {
		props := pages.AuthProps{Name: name, Email: email}
		switch {
		case errors.Is(err, service.ErrEmailAlreadyExists):
			props.Error = "An account with this email already exists"
		case errors.Is(err, service.ErrInvalidEmail):
			props.Error = "Please provide a valid email address"
		case errors.Is(err, service.ErrNameRequired):
			props.Error = fmt.Sprintf("Please enter a display name of up to %d characters", validation.MaxNameLength)
		default:
			slog.Error("sign up failed", "error", err, "email", email)
			props.Error = "An error occurred. Please try again."
		}
		ui.Render(w, r, pages.Login(props))
		return
	}

	h.signIn(w, r, account.UserID, "signup")
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.SignOut(w, r)
	slog.Info("user logged out", "user_id", ctxkeys.Session(r.Context()).UserID)
	redirect(w, r, "/login")
}

func (h *authHandler) signIn(w http.ResponseWriter, r *http.Request, userID, method string) {
	err := h.sessions.SignIn(w, r, userID)
	if err != nil {
		slog.Error("failed to start session", "error", err, "user_id", userID)
		ui.Render(w, r, pages.Login(pages.AuthProps{Error: "An error occurred. Please try again."}))
		return
	}

	slog.Info("user logged in", "user_id", userID, "method", method)
	redirect(w, r, "/feed")
}

// GoogleAuth redirects user to Google OAuth consent screen
func (h *authHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	h.startOAuth(w, r, h.googleOAuthConfig)
}

// GoogleCallback handles the OAuth callback from Google
func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	client, ok := h.exchangeOAuth(w, r, h.googleOAuthConfig, "google")
	if !ok {
		return
	}

	var userInfo struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	err := getJSON(r.Context(), client, h.googleUserInfoURL, &userInfo)
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		ui.Render(w, r, pages.Login(pages.AuthProps{Error: oauthFailed}))
		return
	}

	h.completeOAuth(w, r, service.OAuthIdentity{
		Email:     userInfo.Email,
		Name:      userInfo.Name,
		AvatarURL: userInfo.Picture,
	}, "google")
}

// GitHubAuth redirects user to GitHub OAuth consent screen
func (h *authHandler) GitHubAuth(w http.ResponseWriter, r *http.Request) {
	h.startOAuth(w, r, h.githubOAuthConfig)
}

// GitHubCallback handles the OAuth callback from GitHub
func (h *authHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	client, ok := h.exchangeOAuth(w, r, h.githubOAuthConfig, "github")
	if !ok {
		return
	}

	var userInfo struct {
		Email     string `json:"email"`
		Name      string `json:"name"`
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	}
	err := getJSON(r.Context(), client, h.githubAPIURL+"/user", &userInfo)
	if err != nil {
		slog.Error("failed to get github user info", "error", err)
		ui.Render(w, r, pages.Login(pages.AuthProps{Error: oauthFailed}))
		return
	}

	// Private emails only show up on /user/emails
	if userInfo.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		err = getJSON(r.Context(), client, h.githubAPIURL+"/user/emails", &emails)
		if err != nil {
			slog.Error("failed to get github user emails", "error", err)
			ui.Render(w, r, pages.Login(pages.AuthProps{Error: oauthFailed}))
			return
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				userInfo.Email = e.Email
				break
			}
		}
	}

	if userInfo.Email == "" {
		slog.Warn("github oauth: no email found")
		ui.Render(w, r, pages.Login(pages.AuthProps{Error: "Could not retrieve email from GitHub. Please make sure your email is verified."}))
		return
	}

	name := userInfo.Name
	if name == "" {
		name = userInfo.Login
	}

	h.completeOAuth(w, r, service.OAuthIdentity{
		Email:     userInfo.Email,
		Name:      name,
		AvatarURL: userInfo.AvatarURL,
	}, "github")
}

func (h *authHandler) startOAuth(w http.ResponseWriter, r *http.Request, conf *oauth2.Config) {
	state := generateOAuthState()

	cfg := ctxkeys.Config(r.Context())
	isProduction := cfg != nil && cfg.IsProduction()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	http.Redirect(w, r, conf.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// exchangeOAuth checks the state cookie and trades the code for an authorized client
func (h *authHandler) exchangeOAuth(w http.ResponseWriter, r *http.Request, conf *oauth2.Config, provider string) (*http.Client, bool) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("oauth state validation failed", "error", err, "provider", provider)
		ui.Render(w, r, pages.Login(pages.AuthProps{Error: oauthFailed}))
		return nil, false
	}

	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("oauth callback missing code", "provider", provider)
		ui.Render(w, r, pages.Login(pages.AuthProps{Error: oauthFailed}))
		return nil, false
	}

	token, err := conf.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("oauth token exchange failed", "error", err, "provider", provider)
		ui.Render(w, r, pages.Login(pages.AuthProps{Error: oauthFailed}))
		return nil, false
	}

	return conf.Client(r.Context(), token), true
}

func (h *authHandler) completeOAuth(w http.ResponseWriter, r *http.Request, oauthIdentity service.OAuthIdentity, provider string) {
	account, err := h.authService.AuthenticateOAuth(r.Context(), oauthIdentity, provider)
	if err != nil {
		slog.Error("oauth authentication failed", "error", err, "email", oauthIdentity.Email, "provider", provider)
		ui.Render(w, r, pages.Login(pages.AuthProps{Error: "Authentication failed. Please try again."}))
		return
	}

	h.signIn(w, r, account.UserID, provider)
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// generateOAuthState creates cryptographically secure random state token for OAuth CSRF protection
func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
