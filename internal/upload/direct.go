package upload

import (
	"context"
	"io"

	"github.com/theoryboard/theoryboard/internal/storage"
)

// TheoryPrefix is where theory media lands in the bucket.
const TheoryPrefix = "public/theories"

// AvatarPrefix is where profile photos land in the bucket.
const AvatarPrefix = "public/avatars"

// Direct writes media straight to blob storage.
type Direct struct {
	storage storage.Storage
	prefix  string
}

func NewDirect(s storage.Storage, prefix string) *Direct {
	return &Direct{storage: s, prefix: prefix}
}

func (d *Direct) Upload(ctx context.Context, filename, contentType string, body io.Reader) ([]string, error) {
	key := Key(d.prefix, filename)

	err := d.storage.Save(ctx, key, contentType, body)
	if err != nil {
		return nil, err
	}

	return []string{d.storage.URL(key)}, nil
}
