package model

// FeedEntry is a post enriched with its author's display identity.
type FeedEntry struct {
	Post
	UserDisplayName string `json:"userDisplayName"`
	UserPhotoURL    string `json:"userPhotoURL"`
}

func NewFeedEntry(post Post, display Display) FeedEntry {
	return FeedEntry{
		Post:            post,
		UserDisplayName: display.Name,
		UserPhotoURL:    display.Avatar,
	}
}

// SuggestedUser is a profile prepared for the side panel.
type SuggestedUser struct {
	ID      string
	Display Display
}
