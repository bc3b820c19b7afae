package validation

import (
	"errors"
	"net/mail"
	"strings"
)

// MaxEmailLength is the RFC 5321 path limit.
const MaxEmailLength = 254

// ValidateEmail accepts a bare address only. mail.ParseAddress also takes
// "Ada <ada@example.com>", which would not match the account key.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}

	if len(email) > MaxEmailLength {
		return errors.New("email address is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email address format")
	}

	_, domain, _ := strings.Cut(addr.Address, "@")
	if !strings.Contains(domain, ".") {
		return errors.New("email address needs a full domain, like ada@example.com")
	}

	return nil
}
