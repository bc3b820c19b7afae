package ctxkeys

import (
	"context"

	"github.com/theoryboard/theoryboard/internal/config"
	"github.com/theoryboard/theoryboard/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	SessionKey   contextKey = "session"
	ProfileKey   contextKey = "profile"
	URLPathKey   contextKey = "url_path"
	ConfigKey    contextKey = "config"
	CSRFTokenKey contextKey = "csrf_token"
)

// Session returns the request's session; the zero value when signed out.
func Session(ctx context.Context) model.Session {
	session, _ := ctx.Value(SessionKey).(model.Session)
	return session
}

func WithSession(ctx context.Context, session model.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// Profile is the signed-in user's own profile, nil when signed out.
func Profile(ctx context.Context) *model.UserProfile {
	profile, _ := ctx.Value(ProfileKey).(*model.UserProfile)
	return profile
}

func WithProfile(ctx context.Context, profile *model.UserProfile) context.Context {
	return context.WithValue(ctx, ProfileKey, profile)
}

func URLPath(ctx context.Context) string {
	path, _ := ctx.Value(URLPathKey).(string)
	return path
}

func WithURLPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, URLPathKey, path)
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}

func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CSRFTokenKey, token)
}
