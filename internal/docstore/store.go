// Package docstore is a schemaless per-collection document store.
//
// Backends share one contract: Create assigns an id, Put upserts at a known id,
// Get reports ErrNotFound on a miss and List returns a full scan in the
// backend's natural order. Field values round-trip as JSON-compatible values;
// timestamps may come back as time.Time or RFC 3339 strings, use Time to read them.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrInvalidCollection = errors.New("invalid collection name")
	ErrInvalidID         = errors.New("invalid document id")
)

// Document is one record of a collection.
type Document struct {
	ID     string
	Fields map[string]any
}

type Store interface {
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	Put(ctx context.Context, collection, id string, fields map[string]any) error
	Get(ctx context.Context, collection, id string) (*Document, error)
	List(ctx context.Context, collection string) ([]*Document, error)
	Close() error
}

func checkCollection(collection string) error {
	if collection == "" {
		return ErrInvalidCollection
	}
	return nil
}

func checkID(id string) error {
	if id == "" {
		return ErrInvalidID
	}
	return nil
}

// cloneFields copies the top level of fields and drops reserved id keys.
func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	maps.Copy(out, fields)
	delete(out, "id")
	delete(out, "_id")
	return out
}

// String reads a string field, returning "" when absent or of another type.
func (d *Document) String(key string) string {
	s, _ := d.Fields[key].(string)
	return s
}

// Time reads a timestamp field stored by any backend.
func (d *Document) Time(key string) (time.Time, error) {
	switch v := d.Fields[key].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %q: %w", key, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("field %q: unsupported time type %T", key, v)
	}
}
