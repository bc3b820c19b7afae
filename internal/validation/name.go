package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxNameLength keeps display names short enough for feed cards and the nav.
const MaxNameLength = 50

// NormalizeName strips markup and collapses whitespace runs.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(PlainText(name)), " ")
}

// ValidateName checks a display name as NormalizeName would store it.
func ValidateName(name string) error {
	name = NormalizeName(name)

	if name == "" {
		return errors.New("display name is required")
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("display name is too long (max %d characters)", MaxNameLength)
	}

	return nil
}
