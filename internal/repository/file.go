package repository

import (
	"context"

	"github.com/theoryboard/theoryboard/internal/docstore"
	"github.com/theoryboard/theoryboard/internal/model"
)

type FileRepository interface {
	Create(ctx context.Context, file *model.File) error
}

type fileRepository struct {
	store docstore.Store
}

func NewFileRepository(store docstore.Store) FileRepository {
	return &fileRepository{store: store}
}

func (r *fileRepository) Create(ctx context.Context, file *model.File) error {
	id, err := r.store.Create(ctx, model.CollectionFiles, map[string]any{
		"userId":       file.UserID,
		"filename":     file.Filename,
		"originalName": file.OriginalName,
		"mimeType":     file.MimeType,
		"size":         file.Size,
		"storagePath":  file.StoragePath,
		"createdAt":    file.CreatedAt.UTC(),
	})
	if err != nil {
		return err
	}

	file.ID = id
	return nil
}
