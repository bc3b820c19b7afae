package app

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/theoryboard/theoryboard/internal/config"
	"github.com/theoryboard/theoryboard/internal/upload"
)

func memoryConfig() *config.Config {
	return &config.Config{
		AppName:               "Theoryboard",
		AppEnv:                "development",
		StoreDriver:           config.StoreDriverMemory,
		JWTSecret:             "test-secret",
		JWTExpiry:             time.Hour,
		DefaultAvatarURL:      "/default-avatar.png",
		FeedLookupConcurrency: 4,
		UploadEndpoint:        "https://upload.example.com/api/upload",
		UploadTimeout:         time.Second,
	}
}

func TestNewWithExternalUploadEndpoint(t *testing.T) {
	defer goleak.VerifyNone(t)

	a, err := New(context.Background(), memoryConfig())
	require.NoError(t, err)

	assert.Nil(t, a.FileService, "no bucket means no local upload endpoint")
	assert.Equal(t, "User", a.Fallback.Name)
	assert.Equal(t, "/default-avatar.png", a.Fallback.Avatar)

	require.NoError(t, a.Close())
}

func TestSessionEventsAreCounted(t *testing.T) {
	defer goleak.VerifyNone(t)

	a, err := New(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	w := httptest.NewRecorder()
	require.NoError(t, a.Sessions.SignIn(w, httptest.NewRequest("POST", "/login", nil), "u1"))

	expected := `
# HELP theoryboard_session_events_total Session changes by kind.
# TYPE theoryboard_session_events_total counter
theoryboard_session_events_total{kind="signed_in"} 1
`
	assert.Eventually(t, func() bool {
		return testutil.GatherAndCompare(a.Registry, strings.NewReader(expected), "theoryboard_session_events_total") == nil
	}, time.Second, 10*time.Millisecond)
}

func TestOpenStore(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.StoreDriver = config.StoreDriverSQL
		cfg.DBDriver = "sqlite"
		cfg.DBConnection = filepath.Join(t.TempDir(), "data", "theoryboard.db")

		store, err := OpenStore(context.Background(), cfg)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		id, err := store.Create(context.Background(), "posts", map[string]any{"title": "t"})
		require.NoError(t, err)
		doc, err := store.Get(context.Background(), "posts", id)
		require.NoError(t, err)
		assert.Equal(t, "t", doc.String("title"))
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.StoreDriver = "dynamo"

		_, err := OpenStore(context.Background(), cfg)
		require.Error(t, err)
	})
}

func TestNewUploaders(t *testing.T) {
	theories, avatars := newUploaders(memoryConfig(), nil)
	assert.IsType(t, &upload.Client{}, theories)
	assert.Same(t, theories, avatars)
}
