package model

import (
	"time"
)

const CollectionAccounts = "accounts"

// Account holds sign-in credentials. Accounts are keyed by normalized email.
type Account struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"` // Empty for OAuth-only accounts
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}
