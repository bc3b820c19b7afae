package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/theoryboard/theoryboard/internal/docstore"
	"github.com/theoryboard/theoryboard/internal/model"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	All(ctx context.Context) ([]*model.Post, error)
}

type postRepository struct {
	store docstore.Store
}

func NewPostRepository(store docstore.Store) PostRepository {
	return &postRepository{store: store}
}

// Create writes the post and sets its store-assigned ID.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	fields := map[string]any{
		"title":       post.Title,
		"description": post.Description,
		"userId":      post.UserID,
		"createdAt":   post.CreatedAt.UTC(),
	}
	if post.MediaURL != "" {
		fields["mediaUrl"] = post.MediaURL
	}

	id, err := r.store.Create(ctx, model.CollectionPosts, fields)
	if err != nil {
		return err
	}

	post.ID = id
	return nil
}

func (r *postRepository) All(ctx context.Context) ([]*model.Post, error) {
	docs, err := r.store.List(ctx, model.CollectionPosts)
	if err != nil {
		return nil, err
	}

	posts := make([]*model.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, postFromDocument(doc))
	}

	return posts, nil
}

// postFromDocument maps an unreadable createdAt to the zero time.
func postFromDocument(doc *docstore.Document) *model.Post {
	createdAt, err := doc.Time("createdAt")
	if err != nil {
		slog.Warn("post has unreadable createdAt", "error", err, "post_id", doc.ID)
		createdAt = time.Time{}
	}

	return &model.Post{
		ID:          doc.ID,
		Title:       doc.String("title"),
		Description: doc.String("description"),
		MediaURL:    doc.String("mediaUrl"),
		UserID:      doc.String("userId"),
		CreatedAt:   createdAt,
	}
}
