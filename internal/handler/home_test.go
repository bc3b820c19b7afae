package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHomePageRedirects(t *testing.T) {
	h := NewHomeHandler()

	w := httptest.NewRecorder()
	h.HomePage(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	h.HomePage(w, withSession(httptest.NewRequest(http.MethodGet, "/", nil), "u1"))
	assert.Equal(t, "/feed", w.Header().Get("Location"))
}

func TestNotFoundPage(t *testing.T) {
	w := httptest.NewRecorder()
	NewHomeHandler().NotFoundPage(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")
}

func TestDefaultAvatar(t *testing.T) {
	w := httptest.NewRecorder()
	NewHomeHandler().DefaultAvatar(w, httptest.NewRequest(http.MethodGet, "/default-avatar.png", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", w.Body.String()[:4])
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	NewHomeHandler().Healthz(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestRobots(t *testing.T) {
	h := NewSEOHandler()

	w := httptest.NewRecorder()
	h.Robots(w, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Allow: /login\n")
	assert.True(t, strings.HasSuffix(w.Body.String(), "Disallow: /\n"))
}
