package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/theoryboard/theoryboard/internal/docstore"
	"github.com/theoryboard/theoryboard/internal/model"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already exists")
)

type AccountRepository interface {
	ByEmail(ctx context.Context, email string) (*model.Account, error)
	Create(ctx context.Context, account *model.Account) error
	Update(ctx context.Context, account *model.Account) error
}

type accountRepository struct {
	store docstore.Store
}

func NewAccountRepository(store docstore.Store) AccountRepository {
	return &accountRepository{store: store}
}

// NormalizeEmail produces the account key for an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *accountRepository) ByEmail(ctx context.Context, email string) (*model.Account, error) {
	key := NormalizeEmail(email)
	if key == "" {
		return nil, ErrAccountNotFound
	}

	doc, err := r.store.Get(ctx, model.CollectionAccounts, key)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	createdAt, err := doc.Time("createdAt")
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", doc.ID, err)
	}

	return &model.Account{
		ID:           doc.ID,
		UserID:       doc.String("userId"),
		Email:        doc.String("email"),
		PasswordHash: doc.String("passwordHash"),
		Provider:     doc.String("provider"),
		CreatedAt:    createdAt,
	}, nil
}

// Create stores a new account keyed by its normalized email.
// Accounts with an email that is already registered are rejected.
func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	_, err := r.ByEmail(ctx, account.Email)
	if err == nil {
		return ErrDuplicateEmail
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return err
	}

	account.ID = NormalizeEmail(account.Email)
	account.Email = account.ID
	return r.put(ctx, account)
}

func (r *accountRepository) Update(ctx context.Context, account *model.Account) error {
	if account.ID == "" {
		return ErrAccountNotFound
	}
	return r.put(ctx, account)
}

func (r *accountRepository) put(ctx context.Context, account *model.Account) error {
	return r.store.Put(ctx, model.CollectionAccounts, account.ID, map[string]any{
		"userId":       account.UserID,
		"email":        account.Email,
		"passwordHash": account.PasswordHash,
		"provider":     account.Provider,
		"createdAt":    account.CreatedAt.UTC(),
	})
}
