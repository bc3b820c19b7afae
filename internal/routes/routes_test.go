package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theoryboard/theoryboard/internal/app"
	"github.com/theoryboard/theoryboard/internal/config"
)

var csrfMeta = regexp.MustCompile(`<meta name="csrf-token" content="([^"]+)">`)

func testConfig(uploadEndpoint string) *config.Config {
	return &config.Config{
		AppName:               "Theoryboard",
		AppEnv:                "development",
		AppURL:                "http://localhost:8090",
		StoreDriver:           config.StoreDriverMemory,
		JWTSecret:             "test-secret",
		JWTExpiry:             time.Hour,
		DefaultAvatarURL:      "/default-avatar.png",
		FeedLookupConcurrency: 4,
		UploadEndpoint:        uploadEndpoint,
		UploadTimeout:         5 * time.Second,
		UploadMaxBytes:        5 << 20,
	}
}

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
	csrf   string
}

func newBrowser(t *testing.T, base string) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, base: base, client: &http.Client{Jar: jar}}
}

func (b *browser) get(path string) (int, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)

	if m := csrfMeta.FindStringSubmatch(string(body)); m != nil {
		b.csrf = m[1]
	}
	return resp.StatusCode, string(body)
}

func (b *browser) post(path string, form url.Values) (int, string) {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", b.csrf)

	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp.StatusCode, string(body)
}

func TestSignUpSubmitAndBrowseFeed(t *testing.T) {
	uploads := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string][]string{"links": {"https://cdn.example.com/x.png"}})
	}))
	defer uploads.Close()

	a, err := app.New(context.Background(), testConfig(uploads.URL))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	h, stop := SetupRoutes(a)
	defer stop()
	srv := httptest.NewServer(h)
	defer srv.Close()

	b := newBrowser(t, srv.URL)

	status, body := b.get("/feed")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Sign in", "signed-out visitors land on the login page")

	status, body = b.post("/signup", url.Values{
		"name":     {"Ada"},
		"email":    {"ada@example.com"},
		"password": {"correct horse battery staple"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "No theories submitted yet.")

	status, body = b.get("/theories/new")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `id="theory-form"`)

	status, body = b.post("/theories", url.Values{
		"title":       {"The moon is a hologram"},
		"description": {"<script>alert(1)</script>Look closely"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Your theory has been submitted.")

	status, body = b.get("/feed")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "The moon is a hologram")
	assert.Contains(t, body, "Look closely")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, `<span class="author-name">Ada</span>`)

	status, body = b.get("/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `theoryboard_submissions_total{outcome="success"} 1`)

	status, _ = b.post("/logout", nil)
	require.Equal(t, http.StatusOK, status)
	status, body = b.get("/feed")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `action="/login"`)
}

func TestRejectsMissingCSRFToken(t *testing.T) {
	a, err := app.New(context.Background(), testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	h, stop := SetupRoutes(a)
	defer stop()

	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=a%40b.c&password=x"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOperationalRoutes(t *testing.T) {
	a, err := app.New(context.Background(), testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	h, stop := SetupRoutes(a)
	defer stop()

	tests := []struct {
		path   string
		status int
	}{
		{"/healthz", http.StatusOK},
		{"/robots.txt", http.StatusOK},
		{"/default-avatar.png", http.StatusOK},
		{"/assets/css/app.css", http.StatusOK},
		{"/", http.StatusSeeOther},
		{"/does-not-exist", http.StatusNotFound},
		{"/api/upload", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
		})
	}
}
