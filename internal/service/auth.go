package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/theoryboard/theoryboard/internal/model"
	"github.com/theoryboard/theoryboard/internal/repository"
	"github.com/theoryboard/theoryboard/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

const ProviderPassword = "password"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrNameRequired       = errors.New("name is required")
	ErrPasswordless       = errors.New("this account signs in with an external provider")
)

// AuthService owns accounts: the credentials behind a user id.
type AuthService struct {
	accounts repository.AccountRepository
	profiles repository.ProfileRepository
	now      func() time.Time
}

func NewAuthService(accounts repository.AccountRepository, profiles repository.ProfileRepository) *AuthService {
	return &AuthService{
		accounts: accounts,
		profiles: profiles,
		now:      time.Now,
	}
}

// SignUp creates a password account and the user's public profile.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (*model.Account, error) {
	name = validation.NormalizeName(name)
	email = repository.NormalizeEmail(email)

	err := validation.ValidateName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNameRequired, err)
	}

	err = validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	err = s.ValidatePassword(password)
	if err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		UserID:       uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Provider:     ProviderPassword,
		CreatedAt:    s.now().UTC(),
	}

	err = s.createAccount(ctx, account, &model.UserProfile{DisplayName: name})
	if err != nil {
		return nil, err
	}

	slog.Info("account created", "user_id", account.UserID, "provider", account.Provider)
	return account, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Account, error) {
	account, err := s.accounts.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !account.HasPassword() {
		return nil, ErrPasswordless
	}

	err = s.ComparePassword(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
	}

	return account, nil
}

// OAuthIdentity is what an OAuth provider tells us about the user.
type OAuthIdentity struct {
	Email     string
	Name      string
	AvatarURL string
}

// AuthenticateOAuth returns the account for the identity's email, creating
// the account and its profile on first sign-in.
func (s *AuthService) AuthenticateOAuth(ctx context.Context, identity OAuthIdentity, provider string) (*model.Account, error) {
	email := repository.NormalizeEmail(identity.Email)
	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	account, err := s.accounts.ByEmail(ctx, email)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account = &model.Account{
		UserID:    uuid.New().String(),
		Email:     email,
		Provider:  provider,
		CreatedAt: s.now().UTC(),
	}

	profile := &model.UserProfile{
		DisplayName: validation.NormalizeName(identity.Name),
		PhotoURL:    strings.TrimSpace(identity.AvatarURL),
	}

	err = s.createAccount(ctx, account, profile)
	if err != nil {
		return nil, err
	}

	slog.Info("account created", "user_id", account.UserID, "provider", provider)
	return account, nil
}

func (s *AuthService) createAccount(ctx context.Context, account *model.Account, profile *model.UserProfile) error {
	err := s.accounts.Create(ctx, account)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	profile.ID = account.UserID
	err = s.profiles.Save(ctx, profile)
	if err != nil {
		// The account is usable without a profile; the feed falls back to defaults
		slog.Warn("failed to create profile", "error", err, "user_id", account.UserID)
	}

	return nil
}

func (s *AuthService) ValidatePassword(password string) error {
	return validation.ValidatePassword(password)
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
