package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/theoryboard/theoryboard/internal/model"
	"github.com/theoryboard/theoryboard/internal/repository"
	"github.com/theoryboard/theoryboard/internal/upload"
	"github.com/theoryboard/theoryboard/internal/validation"
)

var (
	ErrInvalidName   = errors.New("invalid name")
	ErrInvalidAvatar = errors.New("invalid avatar")
)

type ProfileService struct {
	profiles repository.ProfileRepository
	avatars  upload.Uploader
}

func NewProfileService(profiles repository.ProfileRepository, avatars upload.Uploader) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		avatars:  avatars,
	}
}

// ByUserID returns the user's profile, or an empty one if none was saved yet.
func (s *ProfileService) ByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	profile, err := s.profiles.ByID(ctx, userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return &model.UserProfile{ID: userID}, nil
	}
	return profile, err
}

// Update sets the display name and, when avatar is given, replaces the photo.
func (s *ProfileService) Update(ctx context.Context, userID, name string, avatar *multipart.FileHeader) (*model.UserProfile, error) {
	name = validation.NormalizeName(name)

	err := validation.ValidateName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidName, err)
	}

	profile, err := s.ByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	profile.DisplayName = name

	if avatar != nil {
		photoURL, err := s.uploadAvatar(ctx, avatar)
		if err != nil {
			return nil, err
		}
		profile.PhotoURL = photoURL
	}

	err = s.profiles.Save(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return profile, nil
}

func (s *ProfileService) uploadAvatar(ctx context.Context, avatar *multipart.FileHeader) (string, error) {
	contentType, err := validation.ValidateFile(avatar, validation.ImageConstraints)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAvatar, err)
	}

	file, err := avatar.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open avatar: %w", err)
	}
	defer func() { _ = file.Close() }()

	links, err := s.avatars.Upload(ctx, avatar.Filename, contentType, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}
	if len(links) == 0 || links[0] == "" {
		return "", upload.ErrNoLinks
	}

	return links[0], nil
}
