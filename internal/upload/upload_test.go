package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientUpload(t *testing.T) {
	var gotName, gotType, gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile(FormField)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, _ := io.ReadAll(file)
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotBody = string(data)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Response{Links: []string{"https://cdn.example.com/a.png", "https://mirror.example.com/a.png"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, "")
	links, err := c.Upload(context.Background(), "a.png", "image/png", strings.NewReader("pixels"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/a.png", links[0])
	assert.Len(t, links, 2)
	assert.Equal(t, "a.png", gotName)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "pixels", gotBody)
}

func TestClientUploadSendsBearerToken(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Response{Links: []string{"https://cdn.example.com/a.png"}})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, "s3cret").Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = NewClient(srv.URL, time.Second, "").Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer s3cret", ""}, gotAuth)
}

func TestClientUploadFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "server error with message", status: http.StatusInternalServerError, body: `{"error":"disk full"}`, wantErr: "disk full"},
		{name: "server error without body", status: http.StatusBadGateway, body: ``, wantErr: "returned 502"},
		{name: "malformed body", status: http.StatusOK, body: `<html>`, wantErr: "decode"},
		{name: "empty links", status: http.StatusCreated, body: `{"links":[]}`, wantErr: ErrNoLinks.Error()},
		{name: "blank first link", status: http.StatusCreated, body: `{"links":[""]}`, wantErr: ErrNoLinks.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second, "").Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClientUploadHonorsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL, 5*time.Second, "").Upload(ctx, "a.png", "image/png", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

type fakeStorage struct {
	saved map[string][]byte
	types map[string]string
	err   error
}

func (s *fakeStorage) Save(ctx context.Context, key, contentType string, body io.Reader) error {
	if s.err != nil {
		return s.err
	}
	var buf bytes.Buffer
	_, err := io.Copy(&buf, body)
	if err != nil {
		return err
	}
	s.saved[key] = buf.Bytes()
	s.types[key] = contentType
	return nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	delete(s.saved, key)
	return nil
}

func (s *fakeStorage) URL(key string) string {
	return "https://bucket.example.com/" + key
}

func TestDirectUpload(t *testing.T) {
	store := &fakeStorage{saved: map[string][]byte{}, types: map[string]string{}}
	d := NewDirect(store, TheoryPrefix)

	links, err := d.Upload(context.Background(), "Clip.MP4", "video/mp4", strings.NewReader("frames"))
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, strings.HasPrefix(links[0], "https://bucket.example.com/public/theories/"))
	assert.True(t, strings.HasSuffix(links[0], ".mp4"))

	require.Len(t, store.saved, 1)
	for key, data := range store.saved {
		assert.Equal(t, "frames", string(data))
		assert.Equal(t, "video/mp4", store.types[key])
	}
}

func TestDirectUploadStorageError(t *testing.T) {
	d := NewDirect(&fakeStorage{err: errors.New("bucket gone")}, TheoryPrefix)

	_, err := d.Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	require.EqualError(t, err, "bucket gone")
}

func TestKey(t *testing.T) {
	a := Key("public/avatars/", "Me.JPG")
	b := Key("public/avatars", "Me.JPG")

	assert.True(t, strings.HasPrefix(a, "public/avatars/"))
	assert.True(t, strings.HasSuffix(a, ".jpg"))
	assert.NotEqual(t, a, b)
	assert.NotContains(t, strings.TrimPrefix(a, "public/avatars/"), "/")
}
