package validation

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
)

// strictPolicy strips all markup; bluemonday policies are safe for concurrent use
var strictPolicy = bluemonday.StrictPolicy()

// ValidateTheory trims and cleans a theory's text fields.
// The description is reduced to plain text before the emptiness check, so
// markup-only input is rejected.
func ValidateTheory(title, description string) (string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", errors.New("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", "", fmt.Errorf("title is too long (max %d characters)", MaxTitleLength)
	}

	description = PlainText(description)
	if description == "" {
		return "", "", errors.New("description is required")
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return "", "", fmt.Errorf("description is too long (max %d characters)", MaxDescriptionLength)
	}

	return title, description, nil
}

// PlainText removes HTML from s and returns the trimmed, unescaped text.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
