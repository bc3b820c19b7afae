package layouts

import (
	"context"

	"github.com/theoryboard/theoryboard/internal/ctxkeys"
	"github.com/theoryboard/theoryboard/internal/model"
)

const htmxSrc = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

type navLink struct {
	href  string
	label string
}

var navLinks = []navLink{
	{"/feed", "Feed"},
	{"/theories/new", "Submit a theory"},
	{"/profile", "Profile"},
}

func appName(ctx context.Context) string {
	if cfg := ctxkeys.Config(ctx); cfg != nil && cfg.AppName != "" {
		return cfg.AppName
	}
	return "Theoryboard"
}

func pageTitle(ctx context.Context, title string) string {
	if title == "" {
		return appName(ctx)
	}
	return title + " | " + appName(ctx)
}

// currentDisplay is the signed-in user's profile with defaults filled in
func currentDisplay(ctx context.Context) model.Display {
	return model.ResolveDisplay(ctxkeys.Profile(ctx), defaultDisplay(ctx))
}

func defaultDisplay(ctx context.Context) model.Display {
	display := model.DefaultDisplay()
	if cfg := ctxkeys.Config(ctx); cfg != nil && cfg.DefaultAvatarURL != "" {
		display.Avatar = cfg.DefaultAvatarURL
	}
	return display
}
