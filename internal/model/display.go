package model

import "strings"

const (
	DefaultDisplayName = "User"
	DefaultAvatarURL   = "/default-avatar.png"
)

// Display is the author identity shown next to a feed entry.
type Display struct {
	Name   string
	Avatar string
}

// DefaultDisplay is the sentinel identity used when an author cannot be resolved.
func DefaultDisplay() Display {
	return Display{Name: DefaultDisplayName, Avatar: DefaultAvatarURL}
}

// ResolveDisplay merges a profile over the fallback identity.
// Each field falls back independently when empty; a nil profile yields the fallback.
func ResolveDisplay(profile *UserProfile, fallback Display) Display {
	if profile == nil {
		return fallback
	}

	display := fallback
	if name := strings.TrimSpace(profile.DisplayName); name != "" {
		display.Name = name
	}
	if photo := strings.TrimSpace(profile.PhotoURL); photo != "" {
		display.Avatar = photo
	}
	return display
}
