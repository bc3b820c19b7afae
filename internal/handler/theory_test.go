package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitTheoryWithoutMedia(t *testing.T) {
	env := newTestEnv(t)
	h := NewTheoryHandler(env.submissionService(), 20<<20)

	r := withSession(formRequest(http.MethodPost, "/theories", url.Values{
		"title":       {"Pigeons are drones"},
		"description": {"They recharge on power lines"},
	}), "u1")
	w := httptest.NewRecorder()
	h.Submit(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Your theory has been submitted.")
	assert.NotContains(t, w.Body.String(), `value="Pigeons are drones"`)
	assert.Zero(t, env.uploader.Calls())

	posts, err := env.posts.All(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Pigeons are drones", posts[0].Title)
	assert.Equal(t, "u1", posts[0].UserID)
	assert.Empty(t, posts[0].MediaURL)
}

func TestSubmitTheoryWithMedia(t *testing.T) {
	env := newTestEnv(t)
	h := NewTheoryHandler(env.submissionService(), 20<<20)

	r := withSession(multipartRequest(t, "/theories",
		map[string]string{"title": "Cats run the internet", "description": "Look at the evidence"},
		formFileField{field: "media", filename: "proof.png", content: pngBytes},
	), "u1")
	w := httptest.NewRecorder()
	h.Submit(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.uploader.Calls())

	posts, err := env.posts.All(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "https://cdn.example.com/public/theories/clip.png", posts[0].MediaURL)
}

func TestSubmitTheoryInvalidKeepsValues(t *testing.T) {
	env := newTestEnv(t)
	h := NewTheoryHandler(env.submissionService(), 20<<20)

	r := withSession(formRequest(http.MethodPost, "/theories", url.Values{
		"title":       {"   "},
		"description": {"kept description"},
	}), "u1")
	w := httptest.NewRecorder()
	h.Submit(w, r)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Title is required")
	assert.Contains(t, w.Body.String(), ">kept description</textarea>")

	posts, err := env.posts.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestSubmitTheoryUploadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.uploader.err = errBoom
	h := NewTheoryHandler(env.submissionService(), 20<<20)

	r := withSession(multipartRequest(t, "/theories",
		map[string]string{"title": "Kept title", "description": "Kept description"},
		formFileField{field: "media", filename: "proof.png", content: pngBytes},
	), "u1")
	w := httptest.NewRecorder()
	h.Submit(w, r)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "We couldn&#39;t upload your media")
	assert.Contains(t, w.Body.String(), `value="Kept title"`)

	posts, err := env.posts.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestSubmitTheoryHTMXReturnsFragment(t *testing.T) {
	env := newTestEnv(t)
	h := NewTheoryHandler(env.submissionService(), 20<<20)

	r := withSession(formRequest(http.MethodPost, "/theories", url.Values{
		"title":       {"Short"},
		"description": {strings.Repeat("x", 5001)},
	}), "u1")
	r.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	h.Submit(w, r)

	body := w.Body.String()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, body, "<!doctype html>")
	assert.True(t, strings.HasPrefix(body, `<form id="theory-form"`))
	assert.Contains(t, body, `hx-swap-oob="beforeend:#toast-container"`)
	assert.Contains(t, body, "Description is too long")
}

func TestSubmitTheorySignedOut(t *testing.T) {
	env := newTestEnv(t)
	h := NewTheoryHandler(env.submissionService(), 20<<20)

	w := httptest.NewRecorder()
	h.Submit(w, formRequest(http.MethodPost, "/theories", url.Values{"title": {"t"}, "description": {"d"}}))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestSubmitTheoryUnreadableForm(t *testing.T) {
	tests := []struct {
		name    string
		request func(t *testing.T) *http.Request
		status  int
		message string
	}{
		{
			name: "body over the limit",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/theories",
					map[string]string{"title": "Huge", "description": "Very large proof"},
					formFileField{field: "media", filename: "proof.png", content: make([]byte, 2<<20)},
				)
			},
			status:  http.StatusRequestEntityTooLarge,
			message: "Your upload is too large.",
		},
		{
			name: "malformed multipart body",
			request: func(t *testing.T) *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/theories", strings.NewReader("this is not a multipart body"))
				r.Header.Set("Content-Type", "multipart/form-data; boundary=theoryboard")
				return r
			},
			status:  http.StatusBadRequest,
			message: "We couldn&#39;t read your submission.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			h := NewTheoryHandler(env.submissionService(), 0)

			w := httptest.NewRecorder()
			h.Submit(w, withSession(tt.request(t), "u1"))

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			assert.Zero(t, env.uploader.Calls())

			posts, err := env.posts.All(context.Background())
			require.NoError(t, err)
			assert.Empty(t, posts)
		})
	}
}
