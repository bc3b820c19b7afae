package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/theoryboard/theoryboard/internal/ctxkeys"
)

// SecurityHeaders sets CSP and the usual hardening headers.
// Media is allowed from the configured storage origins; scripts need the request nonce.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", contentSecurityPolicy(r))
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		cfg := ctxkeys.Config(r.Context())
		if cfg != nil && cfg.IsProduction() {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func contentSecurityPolicy(r *http.Request) string {
	media := []string{"'self'", "data:", "https:"}

	cfg := ctxkeys.Config(r.Context())
	if cfg != nil {
		for _, raw := range []string{cfg.S3Endpoint, cfg.S3PublicURL} {
			origin := originOf(raw)
			if origin != "" {
				media = append(media, origin)
			}
		}
	}

	script := "script-src 'self'"
	if nonce := GetNonce(r.Context()); nonce != "" {
		script = fmt.Sprintf("script-src 'self' 'nonce-%s'", nonce)
	}

	mediaSrc := strings.Join(media, " ")
	return strings.Join([]string{
		"default-src 'self'",
		script,
		"style-src 'self' 'unsafe-inline'",
		"img-src " + mediaSrc,
		"media-src " + mediaSrc,
		"connect-src 'self'",
		"frame-ancestors 'none'",
		"form-action 'self' https://accounts.google.com https://github.com",
		"base-uri 'self'",
	}, "; ")
}

func originOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
