package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theoryboard/theoryboard/internal/config"
	"github.com/theoryboard/theoryboard/internal/ctxkeys"
	"github.com/theoryboard/theoryboard/internal/model"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"
)

type fakeSessions struct {
	session model.Session
	invalid bool
	cleared bool
}

func (f *fakeSessions) CurrentSession(r *http.Request) model.Session { return f.session }
func (f *fakeSessions) HasInvalidCookie(r *http.Request) bool        { return f.invalid }
func (f *fakeSessions) ClearCookie(w http.ResponseWriter)            { f.cleared = true }

type fakeProfiles struct {
	profile *model.UserProfile
	err     error
}

func (f *fakeProfiles) ByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	return f.profile, f.err
}

func captureContext(got *context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = r.Context()
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("live session with profile", func(t *testing.T) {
		var ctx context.Context
		sessions := &fakeSessions{session: model.Session{UserID: "u1"}}
		profiles := &fakeProfiles{profile: &model.UserProfile{ID: "u1", DisplayName: "Ada"}}

		AuthMiddleware(sessions, profiles)(captureContext(&ctx)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/feed", nil))

		assert.Equal(t, "u1", ctxkeys.Session(ctx).UserID)
		assert.Equal(t, "Ada", ctxkeys.Profile(ctx).DisplayName)
	})

	t.Run("profile failure keeps session", func(t *testing.T) {
		var ctx context.Context
		sessions := &fakeSessions{session: model.Session{UserID: "u1"}}

		AuthMiddleware(sessions, &fakeProfiles{err: errors.New("down")})(captureContext(&ctx)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/feed", nil))

		assert.True(t, ctxkeys.Session(ctx).Live())
		assert.Nil(t, ctxkeys.Profile(ctx))
	})

	t.Run("invalid cookie is cleared", func(t *testing.T) {
		var ctx context.Context
		sessions := &fakeSessions{invalid: true}

		AuthMiddleware(sessions, &fakeProfiles{})(captureContext(&ctx)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/feed", nil))

		assert.False(t, ctxkeys.Session(ctx).Live())
		assert.True(t, sessions.cleared)
	})
}

func TestRequireAuthAndGuest(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }

	signedIn := httptest.NewRequest(http.MethodGet, "/feed", nil)
	signedIn = signedIn.WithContext(ctxkeys.WithSession(signedIn.Context(), model.Session{UserID: "u1"}))
	signedOut := httptest.NewRequest(http.MethodGet, "/feed", nil)

	w := httptest.NewRecorder()
	RequireAuth(ok)(w, signedOut)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	RequireAuth(ok)(w, signedIn)
	assert.Equal(t, http.StatusTeapot, w.Code)

	htmx := httptest.NewRequest(http.MethodPost, "/theories", nil)
	htmx.Header.Set("HX-Request", "true")
	w = httptest.NewRecorder()
	RequireAuth(ok)(w, htmx)
	assert.Equal(t, "/login", w.Header().Get("HX-Redirect"))

	w = httptest.NewRecorder()
	RequireGuest(ok)(w, signedIn)
	assert.Equal(t, "/feed", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	RequireGuest(ok)(w, signedOut)
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestCSRFProtection(t *testing.T) {
	var seen string
	h := CSRFProtection(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxkeys.CSRFToken(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/theories/new", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	token := cookies[0].Value
	assert.Equal(t, token, seen)

	post := func(form url.Values, header string) int {
		r := httptest.NewRequest(http.MethodPost, "/theories", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
		if header != "" {
			r.Header.Set(csrfHeader, header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, post(url.Values{}, ""))
	assert.Equal(t, http.StatusForbidden, post(url.Values{csrfFormField: {"forged"}}, ""))
	assert.Equal(t, http.StatusOK, post(url.Values{csrfFormField: {token}}, ""))
	assert.Equal(t, http.StatusOK, post(url.Values{}, token))

	api := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, api)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	defer rl.Stop()

	h := rl.ByIP(func(w http.ResponseWriter, r *http.Request) {})
	call := func(ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/login", nil)
		r.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		h(w, r)
		return w
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)
	limited := call("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "3600", limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2").Code)

	rl.cleanup(time.Now().Add(2 * time.Minute))
	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)
}

func TestRateLimiterByUser(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 1, time.Minute)
	defer rl.Stop()

	h := rl.ByUser(func(w http.ResponseWriter, r *http.Request) {})
	call := func(userID string) int {
		r := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
		r.RemoteAddr = "10.0.0.9:1"
		r = r.WithContext(ctxkeys.WithSession(r.Context(), model.Session{UserID: userID}))
		w := httptest.NewRecorder()
		h(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("u1"))
	assert.Equal(t, http.StatusTooManyRequests, call("u1"))
	assert.Equal(t, http.StatusOK, call("u2"))
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", getClientIP(r))

	r.Header.Set("X-Real-IP", " 198.51.100.7 ")
	assert.Equal(t, "198.51.100.7", getClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", getClientIP(r))
}

func TestSecurityHeaders(t *testing.T) {
	cfg := &config.Config{AppEnv: "production", S3Endpoint: "http://minio.local:9000", S3PublicURL: "https://cdn.example.com/media"}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, templ.GetNonce(r.Context()))
	}), Config(cfg), NonceMiddleware, SecurityHeaders)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed", nil))

	csp := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "script-src 'self' 'nonce-")
	assert.Contains(t, csp, "http://minio.local:9000")
	assert.Contains(t, csp, "https://cdn.example.com")
	assert.NotContains(t, csp, "/media")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

type recorded struct {
	method string
	status int
}

type fakeHTTPRecorder struct{ calls []recorded }

func (f *fakeHTTPRecorder) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	f.calls = append(f.calls, recorded{method, statusCode})
}

func TestRequestMetrics(t *testing.T) {
	rec := &fakeHTTPRecorder{}
	h := RequestMetrics(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/feed", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, []recorded{{"GET", 200}, {"GET", 404}}, rec.calls)
}
