package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theoryboard/theoryboard/internal/docstore"
	"github.com/theoryboard/theoryboard/internal/model"
)

func TestFeedPageEmpty(t *testing.T) {
	env := newTestEnv(t)
	w := httptest.NewRecorder()

	NewFeedHandler(env.feedService()).FeedPage(w, withSession(httptest.NewRequest(http.MethodGet, "/feed", nil), "u1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No theories submitted yet.")
}

func TestFeedPageEntries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, env.profiles.Save(ctx, &model.UserProfile{ID: "u1", DisplayName: "Ada", PhotoURL: "https://cdn.example.com/ada.png"}))
	require.NoError(t, env.posts.Create(ctx, &model.Post{Title: "First", Description: "by ada", UserID: "u1", CreatedAt: now}))
	require.NoError(t, env.posts.Create(ctx, &model.Post{Title: "Second", Description: "by ghost", UserID: "ghost", CreatedAt: now}))

	w := httptest.NewRecorder()
	NewFeedHandler(env.feedService()).FeedPage(w, withSession(httptest.NewRequest(http.MethodGet, "/feed", nil), "u1"))

	body := w.Body.String()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, body, "No theories submitted yet.")
	assert.Contains(t, body, "https://cdn.example.com/ada.png")
	assert.Contains(t, body, `<span class="author-name">User</span>`)
	assert.Less(t, strings.Index(body, "First"), strings.Index(body, "Second"))

	// Suggested users lists every profile
	assert.Contains(t, body, `<aside class="suggested">`)
	assert.Contains(t, body, "<span>Ada</span>")
}

func TestFeedPageSignedOut(t *testing.T) {
	env := newTestEnv(t)
	w := httptest.NewRecorder()

	NewFeedHandler(env.feedService()).FeedPage(w, httptest.NewRequest(http.MethodGet, "/feed", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestFeedPageListFailure(t *testing.T) {
	env := newTestEnvWithStore(t, listFailStore{Store: docstore.NewMemory()})
	w := httptest.NewRecorder()

	NewFeedHandler(env.feedService()).FeedPage(w, withSession(httptest.NewRequest(http.MethodGet, "/feed", nil), "u1"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "We couldn&#39;t load the feed")
}
