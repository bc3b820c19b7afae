package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/theoryboard/theoryboard/internal/model"
	"github.com/theoryboard/theoryboard/internal/repository"
	"github.com/theoryboard/theoryboard/internal/storage"
	"github.com/theoryboard/theoryboard/internal/upload"
	"github.com/theoryboard/theoryboard/internal/validation"
)

var ErrInvalidFile = errors.New("invalid file")

// FileService backs the upload endpoint: it stores blobs and keeps a record
// of who uploaded what.
type FileService struct {
	files   repository.FileRepository
	storage storage.Storage
	prefix  string
}

func NewFileService(files repository.FileRepository, s storage.Storage, prefix string) *FileService {
	return &FileService{
		files:   files,
		storage: s,
		prefix:  prefix,
	}
}

// Upload validates and stores the file and returns its record and public URL.
func (s *FileService) Upload(ctx context.Context, userID string, header *multipart.FileHeader) (*model.File, string, error) {
	contentType, err := validation.ValidateFile(header, validation.MediaConstraints...)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	key := upload.Key(s.prefix, header.Filename)

	err = s.storage.Save(ctx, key, contentType, file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to save file: %w", err)
	}

	record := &model.File{
		UserID:       userID,
		Filename:     filepath.Base(key),
		OriginalName: header.Filename,
		MimeType:     contentType,
		Size:         header.Size,
		StoragePath:  key,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.files.Create(ctx, record)
	if err != nil {
		// If the record insert fails, try to clean up the stored blob
		delErr := s.storage.Delete(context.WithoutCancel(ctx), key)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", key)
		}
		return nil, "", fmt.Errorf("failed to create file record: %w", err)
	}

	return record, s.storage.URL(key), nil
}
