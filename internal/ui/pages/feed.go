package pages

import (
	"path"
	"strings"

	"github.com/theoryboard/theoryboard/internal/model"
)

// EmptyFeedMessage is shown in place of the feed when no theories exist
const EmptyFeedMessage = "No theories submitted yet."

type FeedProps struct {
	Entries   []model.FeedEntry
	Suggested []model.SuggestedUser
}

func isVideo(url string) bool {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	switch strings.ToLower(path.Ext(url)) {
	case ".mp4", ".webm", ".mov":
		return true
	}
	return false
}
