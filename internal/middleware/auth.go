package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/theoryboard/theoryboard/internal/ctxkeys"
	"github.com/theoryboard/theoryboard/internal/model"
)

// SessionSource resolves the caller's session from the request.
type SessionSource interface {
	CurrentSession(r *http.Request) model.Session
	HasInvalidCookie(r *http.Request) bool
	ClearCookie(w http.ResponseWriter)
}

// ProfileSource loads the signed-in user's profile.
type ProfileSource interface {
	ByUserID(ctx context.Context, userID string) (*model.UserProfile, error)
}

// AuthMiddleware puts the session, and for live sessions the user's profile, into the context
func AuthMiddleware(sessions SessionSource, profiles ProfileSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sessions.CurrentSession(r)
			if !session.Live() {
				if sessions.HasInvalidCookie(r) {
					sessions.ClearCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithSession(r.Context(), session)

			profile, err := profiles.ByUserID(ctx, session.UserID)
			if err != nil {
				slog.Warn("failed to load profile for session", "error", err, "user_id", session.UserID)
			} else {
				ctx = ctxkeys.WithProfile(ctx, profile)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth sends signed-out callers to the login page
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ctxkeys.Session(r.Context()).Live() {
			redirect(w, r, "/login")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireGuest sends signed-in callers to the feed
func RequireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.Session(r.Context()).Live() {
			redirect(w, r, "/feed")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// redirect uses HX-Redirect for HTMX requests to force a full page load
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
