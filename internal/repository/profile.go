package repository

import (
	"context"
	"errors"

	"github.com/theoryboard/theoryboard/internal/docstore"
	"github.com/theoryboard/theoryboard/internal/model"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepository interface {
	ByID(ctx context.Context, userID string) (*model.UserProfile, error)
	All(ctx context.Context) ([]*model.UserProfile, error)
	Save(ctx context.Context, profile *model.UserProfile) error
}

type profileRepository struct {
	store docstore.Store
}

func NewProfileRepository(store docstore.Store) ProfileRepository {
	return &profileRepository{store: store}
}

func (r *profileRepository) ByID(ctx context.Context, userID string) (*model.UserProfile, error) {
	if userID == "" {
		return nil, ErrProfileNotFound
	}

	doc, err := r.store.Get(ctx, model.CollectionUsers, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return profileFromDocument(doc), nil
}

func (r *profileRepository) All(ctx context.Context) ([]*model.UserProfile, error) {
	docs, err := r.store.List(ctx, model.CollectionUsers)
	if err != nil {
		return nil, err
	}

	profiles := make([]*model.UserProfile, 0, len(docs))
	for _, doc := range docs {
		profiles = append(profiles, profileFromDocument(doc))
	}

	return profiles, nil
}

func (r *profileRepository) Save(ctx context.Context, profile *model.UserProfile) error {
	return r.store.Put(ctx, model.CollectionUsers, profile.ID, map[string]any{
		"displayName": profile.DisplayName,
		"photoURL":    profile.PhotoURL,
	})
}

func profileFromDocument(doc *docstore.Document) *model.UserProfile {
	return &model.UserProfile{
		ID:          doc.ID,
		DisplayName: doc.String("displayName"),
		PhotoURL:    doc.String("photoURL"),
	}
}
