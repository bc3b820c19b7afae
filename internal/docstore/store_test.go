package docstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoryboard/theoryboard/internal/db"
	"github.com/theoryboard/theoryboard/internal/docstore"
)

func newSQLiteStore(t *testing.T) docstore.Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "docs.db") + "?_pragma=busy_timeout(5000)"
	database, err := db.Open(context.Background(), "sqlite", dsn)
	require.NoError(t, err)

	store := docstore.NewSQL(database)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func backends(t *testing.T) map[string]func(t *testing.T) docstore.Store {
	return map[string]func(t *testing.T) docstore.Store{
		"memory": func(t *testing.T) docstore.Store { return docstore.NewMemory() },
		"sqlite": newSQLiteStore,
	}
}

func TestStoreContract(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("create then get", func(t *testing.T) {
				store := open(t)
				created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

				id, err := store.Create(ctx, "posts", map[string]any{
					"title":     "T",
					"userId":    "u1",
					"createdAt": created,
				})
				require.NoError(t, err)
				require.NotEmpty(t, id)

				doc, err := store.Get(ctx, "posts", id)
				require.NoError(t, err)
				assert.Equal(t, id, doc.ID)
				assert.Equal(t, "T", doc.String("title"))
				assert.Equal(t, "u1", doc.String("userId"))

				got, err := doc.Time("createdAt")
				require.NoError(t, err)
				assert.True(t, created.Equal(got), "createdAt = %v, want %v", got, created)
			})

			t.Run("get missing", func(t *testing.T) {
				store := open(t)

				_, err := store.Get(ctx, "users", "nobody")
				assert.ErrorIs(t, err, docstore.ErrNotFound)
			})

			t.Run("list keeps insertion order", func(t *testing.T) {
				store := open(t)

				var ids []string
				for _, title := range []string{"first", "second", "third"} {
					id, err := store.Create(ctx, "posts", map[string]any{"title": title})
					require.NoError(t, err)
					ids = append(ids, id)
				}
				_, err := store.Create(ctx, "other", map[string]any{"title": "elsewhere"})
				require.NoError(t, err)

				docs, err := store.List(ctx, "posts")
				require.NoError(t, err)
				require.Len(t, docs, 3)
				for i, doc := range docs {
					assert.Equal(t, ids[i], doc.ID)
				}
			})

			t.Run("list empty collection", func(t *testing.T) {
				store := open(t)

				docs, err := store.List(ctx, "posts")
				require.NoError(t, err)
				assert.Empty(t, docs)
			})

			t.Run("put upserts", func(t *testing.T) {
				store := open(t)

				require.NoError(t, store.Put(ctx, "users", "u1", map[string]any{"displayName": "Ada"}))
				require.NoError(t, store.Put(ctx, "users", "u1", map[string]any{"displayName": "Ada L."}))

				doc, err := store.Get(ctx, "users", "u1")
				require.NoError(t, err)
				assert.Equal(t, "Ada L.", doc.String("displayName"))

				docs, err := store.List(ctx, "users")
				require.NoError(t, err)
				assert.Len(t, docs, 1)
			})

			t.Run("reserved id keys are dropped", func(t *testing.T) {
				store := open(t)

				id, err := store.Create(ctx, "posts", map[string]any{"id": "spoofed", "title": "T"})
				require.NoError(t, err)

				doc, err := store.Get(ctx, "posts", id)
				require.NoError(t, err)
				assert.Equal(t, id, doc.ID)
				assert.NotContains(t, doc.Fields, "id")
			})

			t.Run("invalid arguments", func(t *testing.T) {
				store := open(t)

				_, err := store.Create(ctx, "", map[string]any{})
				assert.ErrorIs(t, err, docstore.ErrInvalidCollection)
				assert.ErrorIs(t, store.Put(ctx, "users", "", map[string]any{}), docstore.ErrInvalidID)
			})
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()

	fields := map[string]any{"title": "original"}
	id, err := store.Create(ctx, "posts", fields)
	require.NoError(t, err)

	fields["title"] = "mutated by caller"
	doc, err := store.Get(ctx, "posts", id)
	require.NoError(t, err)
	doc.Fields["title"] = "mutated by reader"

	again, err := store.Get(ctx, "posts", id)
	require.NoError(t, err)
	assert.Equal(t, "original", again.String("title"))
}

func TestMemoryHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := docstore.NewMemory().List(ctx, "posts")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDocumentTime(t *testing.T) {
	doc := &docstore.Document{Fields: map[string]any{
		"string": "2024-05-01T12:30:00Z",
		"bad":    "yesterday",
		"number": 42.0,
	}}

	got, err := doc.Time("string")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())

	got, err = doc.Time("missing")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = doc.Time("bad")
	assert.Error(t, err)
	_, err = doc.Time("number")
	assert.Error(t, err)
}
