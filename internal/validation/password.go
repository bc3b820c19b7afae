package validation

import (
	"errors"
	"strings"
)

const (
	MinPasswordLength = 12
	// bcrypt ignores every byte past 72
	MaxPasswordLength = 72
)

// weakFragments are rejected anywhere in a password, case-insensitively.
var weakFragments = []string{
	"password", "123456", "qwerty", "letmein", "welcome",
	"theoryboard", "conspiracy", "flatearth", "tinfoil",
}

// ValidatePassword enforces length bounds and refuses passwords built
// around common or site-themed words.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 12 characters")
	}

	if len(password) > MaxPasswordLength {
		return errors.New("password must not exceed 72 characters")
	}

	lower := strings.ToLower(password)
	for _, fragment := range weakFragments {
		if strings.Contains(lower, fragment) {
			return errors.New("password is too easy to guess, please choose another")
		}
	}

	return nil
}
