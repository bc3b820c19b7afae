package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/theoryboard/theoryboard/internal/ctxkeys"
	"github.com/theoryboard/theoryboard/internal/docstore"
	"github.com/theoryboard/theoryboard/internal/identity"
	"github.com/theoryboard/theoryboard/internal/metrics"
	"github.com/theoryboard/theoryboard/internal/model"
	"github.com/theoryboard/theoryboard/internal/repository"
	"github.com/theoryboard/theoryboard/internal/service"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	errBoom  = errors.New("boom")
)

const testSecret = "test-secret-test-secret-test-secret"

type testEnv struct {
	store    docstore.Store
	posts    repository.PostRepository
	profiles repository.ProfileRepository
	accounts repository.AccountRepository
	bus      *identity.MemoryBus
	sessions *identity.Provider
	uploader *fakeUploader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, docstore.NewMemory())
}

func newTestEnvWithStore(t *testing.T, store docstore.Store) *testEnv {
	t.Helper()

	bus := identity.NewMemoryBus()
	t.Cleanup(func() { _ = bus.Close() })

	return &testEnv{
		store:    store,
		posts:    repository.NewPostRepository(store),
		profiles: repository.NewProfileRepository(store),
		accounts: repository.NewAccountRepository(store),
		bus:      bus,
		sessions: identity.NewProvider(testSecret, time.Hour, false, bus),
		uploader: &fakeUploader{links: []string{"https://cdn.example.com/public/theories/clip.png"}},
	}
}

func (e *testEnv) feedService() *service.FeedService {
	return service.NewFeedService(e.posts, e.profiles, model.DefaultDisplay(), 4, metrics.Nop{})
}

func (e *testEnv) submissionService() *service.SubmissionService {
	return service.NewSubmissionService(e.posts, e.uploader, metrics.Nop{})
}

func (e *testEnv) authService() *service.AuthService {
	return service.NewAuthService(e.accounts, e.profiles)
}

func (e *testEnv) profileService() *service.ProfileService {
	return service.NewProfileService(e.profiles, e.uploader)
}

func withSession(r *http.Request, userID string) *http.Request {
	return r.WithContext(ctxkeys.WithSession(r.Context(), model.Session{UserID: userID}))
}

func formRequest(method, target string, form url.Values) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

type formFileField struct {
	field, filename string
	content         []byte
}

func multipartRequest(t *testing.T, target string, values map[string]string, files ...formFileField) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, target, &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	links []string
	err   error
}

func (u *fakeUploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) ([]string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	_, _ = io.Copy(io.Discard, body)
	return u.links, u.err
}

func (u *fakeUploader) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

// listFailStore fails every List call.
type listFailStore struct {
	docstore.Store
}

func (s listFailStore) List(ctx context.Context, collection string) ([]*docstore.Document, error) {
	return nil, errBoom
}

type memStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{blobs: make(map[string][]byte)}
}

func (s *memStorage) Save(ctx context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *memStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *memStorage) URL(key string) string {
	return "https://cdn.example.com/" + key
}

func (s *memStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
