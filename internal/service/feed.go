package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/theoryboard/theoryboard/internal/metrics"
	"github.com/theoryboard/theoryboard/internal/model"
	"github.com/theoryboard/theoryboard/internal/repository"
	"golang.org/x/sync/errgroup"
)

type FeedService struct {
	posts       repository.PostRepository
	profiles    repository.ProfileRepository
	fallback    model.Display
	concurrency int
	metrics     metrics.Recorder
}

func NewFeedService(posts repository.PostRepository, profiles repository.ProfileRepository, fallback model.Display, concurrency int, recorder metrics.Recorder) *FeedService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &FeedService{
		posts:       posts,
		profiles:    profiles,
		fallback:    fallback,
		concurrency: concurrency,
		metrics:     recorder,
	}
}

// Assemble lists every post and attaches its author's display identity.
//
// Only a failed post listing fails the feed. Author lookups run concurrently
// and any lookup that misses or errors falls back to the default identity.
// Entries keep the store's listing order.
func (s *FeedService) Assemble(ctx context.Context, session model.Session) ([]model.FeedEntry, error) {
	if !session.Live() {
		return nil, ErrUnauthenticated
	}

	start := time.Now()

	posts, err := s.posts.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	entries := make([]model.FeedEntry, len(posts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, post := range posts {
		g.Go(func() error {
			display, err := s.authorDisplay(gctx, post)
			if err != nil {
				return err
			}
			entries[i] = model.NewFeedEntry(*post, display)
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return nil, err
	}

	s.metrics.RecordFeedAssembly(time.Since(start), len(entries))
	return entries, nil
}

// authorDisplay only returns an error when ctx is done.
func (s *FeedService) authorDisplay(ctx context.Context, post *model.Post) (model.Display, error) {
	err := ctx.Err()
	if err != nil {
		return model.Display{}, err
	}

	if !post.HasAuthor() {
		s.metrics.RecordProfileLookup(metrics.OutcomeSkipped)
		return s.fallback, nil
	}

	profile, err := s.profiles.ByID(ctx, post.UserID)
	switch {
	case err == nil:
		s.metrics.RecordProfileLookup(metrics.OutcomeSuccess)
		return model.ResolveDisplay(profile, s.fallback), nil
	case errors.Is(err, repository.ErrProfileNotFound):
		s.metrics.RecordProfileLookup(metrics.OutcomeNotFound)
		slog.Warn("author profile missing", "post_id", post.ID, "user_id", post.UserID)
		return s.fallback, nil
	case ctx.Err() != nil:
		return model.Display{}, ctx.Err()
	default:
		s.metrics.RecordProfileLookup(metrics.OutcomeError)
		slog.Error("author profile lookup failed", "error", err, "post_id", post.ID, "user_id", post.UserID)
		return s.fallback, nil
	}
}

// SuggestedUsers returns every profile, unfiltered and unranked.
func (s *FeedService) SuggestedUsers(ctx context.Context) ([]model.SuggestedUser, error) {
	profiles, err := s.profiles.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	users := make([]model.SuggestedUser, 0, len(profiles))
	for _, profile := range profiles {
		users = append(users, model.SuggestedUser{
			ID:      profile.ID,
			Display: model.ResolveDisplay(profile, s.fallback),
		})
	}

	return users, nil
}
