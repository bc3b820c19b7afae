package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SQL stores every collection in the documents table as JSON text.
// List order is insertion order (seq).
type SQL struct {
	db *sqlx.DB
}

type documentRow struct {
	ID     string `db:"id"`
	Fields string `db:"fields"`
}

func NewSQL(db *sqlx.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	err := checkCollection(collection)
	if err != nil {
		return "", err
	}

	encoded, err := encodeFields(fields)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, collection, id, encoded, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	return id, nil
}

func (s *SQL) Put(ctx context.Context, collection, id string, fields map[string]any) error {
	err := checkCollection(collection)
	if err != nil {
		return err
	}
	err = checkID(id)
	if err != nil {
		return err
	}

	encoded, err := encodeFields(fields)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	// ON CONFLICT upsert works for both SQLite and PostgreSQL
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (collection, id) DO UPDATE SET fields = excluded.fields, updated_at = excluded.updated_at
	`, collection, id, encoded, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

func (s *SQL) Get(ctx context.Context, collection, id string) (*Document, error) {
	err := checkCollection(collection)
	if err != nil {
		return nil, err
	}

	var row documentRow
	err = s.db.GetContext(ctx, &row, `SELECT id, fields FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return row.document()
}

func (s *SQL) List(ctx context.Context, collection string) ([]*Document, error) {
	err := checkCollection(collection)
	if err != nil {
		return nil, err
	}

	var rows []documentRow
	err = s.db.SelectContext(ctx, &rows, `SELECT id, fields FROM documents WHERE collection = $1 ORDER BY seq`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]*Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (r documentRow) document() (*Document, error) {
	fields := map[string]any{}
	err := json.Unmarshal([]byte(r.Fields), &fields)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", r.ID, err)
	}
	return &Document{ID: r.ID, Fields: fields}, nil
}

func encodeFields(fields map[string]any) (string, error) {
	encoded, err := json.Marshal(cloneFields(fields))
	if err != nil {
		return "", fmt.Errorf("failed to encode document fields: %w", err)
	}
	return string(encoded), nil
}
