package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/theoryboard/theoryboard/internal/metrics"
	"github.com/theoryboard/theoryboard/internal/model"
	"github.com/theoryboard/theoryboard/internal/repository"
	"github.com/theoryboard/theoryboard/internal/upload"
	"github.com/theoryboard/theoryboard/internal/validation"
)

var (
	ErrUnauthenticated = errors.New("not signed in")
	ErrInvalidTheory   = errors.New("invalid theory")
)

// InvalidTheoryError carries the message shown next to the form.
type InvalidTheoryError struct {
	Message string
}

func (e *InvalidTheoryError) Error() string {
	return "invalid theory: " + e.Message
}

func (e *InvalidTheoryError) Is(target error) bool {
	return target == ErrInvalidTheory
}

// UploadError means the media never reached storage; no post was written.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("media upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// WriteError means the post could not be stored. MediaURL, when set, points
// at a blob no post references.
type WriteError struct {
	Err      error
	MediaURL string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to save theory: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// TheoryInput is what the submission form collects. Media is optional.
type TheoryInput struct {
	Title       string
	Description string
	Media       *multipart.FileHeader
}

type SubmissionService struct {
	posts    repository.PostRepository
	uploader upload.Uploader
	metrics  metrics.Recorder
	now      func() time.Time
}

func NewSubmissionService(posts repository.PostRepository, uploader upload.Uploader, recorder metrics.Recorder) *SubmissionService {
	return &SubmissionService{
		posts:    posts,
		uploader: uploader,
		metrics:  recorder,
		now:      time.Now,
	}
}

// Submit checks the session, validates the input, uploads media if present
// and writes exactly one post. Nothing is retried.
func (s *SubmissionService) Submit(ctx context.Context, session model.Session, input TheoryInput) (*model.Post, error) {
	if !session.Live() {
		s.metrics.RecordSubmission(metrics.OutcomeUnauthorized)
		return nil, ErrUnauthenticated
	}

	title, description, err := validation.ValidateTheory(input.Title, input.Description)
	if err != nil {
		s.metrics.RecordSubmission(metrics.OutcomeInvalid)
		return nil, &InvalidTheoryError{Message: err.Error()}
	}

	var contentType string
	if input.Media != nil {
		contentType, err = validation.ValidateFile(input.Media, validation.MediaConstraints...)
		if err != nil {
			s.metrics.RecordSubmission(metrics.OutcomeInvalid)
			return nil, &InvalidTheoryError{Message: err.Error()}
		}
	}

	post := &model.Post{
		Title:       title,
		Description: description,
		UserID:      session.UserID,
	}

	if input.Media != nil {
		mediaURL, err := s.uploadMedia(ctx, input.Media, contentType)
		if err != nil {
			s.metrics.RecordSubmission(metrics.OutcomeUploadFailed)
			slog.Error("theory media upload failed", "error", err, "user_id", session.UserID, "filename", input.Media.Filename)
			return nil, &UploadError{Err: err}
		}
		post.MediaURL = mediaURL
	}

	post.CreatedAt = s.now().UTC()

	err = s.posts.Create(ctx, post)
	if err != nil {
		s.metrics.RecordSubmission(metrics.OutcomeWriteFailed)
		if post.HasMedia() {
			slog.Error("theory write failed, media orphaned", "error", err, "user_id", session.UserID, "media_url", post.MediaURL)
		} else {
			slog.Error("theory write failed", "error", err, "user_id", session.UserID)
		}
		return nil, &WriteError{Err: err, MediaURL: post.MediaURL}
	}

	s.metrics.RecordSubmission(metrics.OutcomeSuccess)
	slog.Info("theory submitted", "post_id", post.ID, "user_id", session.UserID, "has_media", post.HasMedia())
	return post, nil
}

func (s *SubmissionService) uploadMedia(ctx context.Context, media *multipart.FileHeader, contentType string) (string, error) {
	file, err := media.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open media: %w", err)
	}
	defer func() { _ = file.Close() }()

	start := time.Now()
	links, err := s.uploader.Upload(ctx, media.Filename, contentType, file)
	if err == nil && (len(links) == 0 || links[0] == "") {
		err = upload.ErrNoLinks
	}
	if err != nil {
		s.metrics.RecordUpload(metrics.OutcomeError, time.Since(start))
		return "", err
	}

	s.metrics.RecordUpload(metrics.OutcomeSuccess, time.Since(start))
	return links[0], nil
}
