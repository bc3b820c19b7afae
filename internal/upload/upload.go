// Package upload sends media to blob storage and returns its public links.
package upload

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrNoLinks = errors.New("upload response contained no links")

// Uploader stores one blob and returns the links it can be fetched from.
// Callers use the first link.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) ([]string, error)
}

// Key builds a collision-free storage key under prefix, keeping the
// lowercased file extension.
func Key(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return strings.TrimSuffix(prefix, "/") + "/" + uuid.New().String() + ext
}
