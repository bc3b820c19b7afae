package handler

import (
	"net/http"
	"strings"
)

type SEOHandler struct {
	robots []byte
}

// NewSEOHandler builds robots.txt once. Everything past the login page
// requires a session, so crawlers are kept to the public entry points.
func NewSEOHandler() *SEOHandler {
	lines := []string{
		"User-agent: *",
		"Allow: /$",
		"Allow: /login",
		"Allow: /assets/",
		"Disallow: /",
	}
	return &SEOHandler{robots: []byte(strings.Join(lines, "\n") + "\n")}
}

func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(h.robots)
}
