package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theoryboard/theoryboard/internal/docstore"
	"github.com/theoryboard/theoryboard/internal/model"
	"github.com/theoryboard/theoryboard/internal/repository"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	errBoom  = errors.New("boom")
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["file"][0]
}

// fakeUploader records every call and answers with links or err.
type fakeUploader struct {
	mu          sync.Mutex
	calls       int
	contentType string
	body        []byte
	links       []string
	err         error
}

func (u *fakeUploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) ([]string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.calls++
	u.contentType = contentType
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	u.body = data
	return u.links, u.err
}

func (u *fakeUploader) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

// failingStore wraps a docstore and fails the selected operations.
type failingStore struct {
	docstore.Store
	createErr error
	listErr   error
	putErr    error
	putOnly   string // when set, putErr applies to this collection only
	creates   atomic.Int32
}

func (s *failingStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	s.creates.Add(1)
	if s.createErr != nil {
		return "", s.createErr
	}
	return s.Store.Create(ctx, collection, fields)
}

func (s *failingStore) Put(ctx context.Context, collection, id string, fields map[string]any) error {
	if s.putErr != nil && (s.putOnly == "" || s.putOnly == collection) {
		return s.putErr
	}
	return s.Store.Put(ctx, collection, id, fields)
}

func (s *failingStore) List(ctx context.Context, collection string) ([]*docstore.Document, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.Store.List(ctx, collection)
}

// profileLookup lets feed tests decide per user id what a lookup does.
type profileLookup struct {
	repository.ProfileRepository
	byID func(ctx context.Context, userID string) (*model.UserProfile, error)
}

func (p *profileLookup) ByID(ctx context.Context, userID string) (*model.UserProfile, error) {
	return p.byID(ctx, userID)
}

func countDocs(t *testing.T, store docstore.Store, collection string) int {
	t.Helper()
	docs, err := store.List(context.Background(), collection)
	require.NoError(t, err)
	return len(docs)
}
