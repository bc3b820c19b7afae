package model

import (
	"time"
)

const CollectionPosts = "posts"

// Post is a submitted theory. Posts are immutable once written.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MediaURL    string    `json:"mediaUrl,omitempty"` // Empty when the theory has no media
	UserID      string    `json:"userId,omitempty"`   // May be empty on legacy documents
	CreatedAt   time.Time `json:"createdAt"`
}

func (p *Post) HasMedia() bool {
	return p.MediaURL != ""
}

func (p *Post) HasAuthor() bool {
	return p.UserID != ""
}
