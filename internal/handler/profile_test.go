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
	"github.com/theoryboard/theoryboard/internal/model"
)

func newProfileHandler(env *testEnv) *ProfileHandler {
	return NewProfileHandler(env.profileService(), model.DefaultDisplay(), 5<<20)
}

func TestProfilePage(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.profiles.Save(context.Background(), &model.UserProfile{ID: "u1", DisplayName: "Ada"}))

	w := httptest.NewRecorder()
	newProfileHandler(env).ProfilePage(w, withSession(httptest.NewRequest(http.MethodGet, "/profile", nil), "u1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="name" type="text" required value="Ada"`)
	assert.Contains(t, w.Body.String(), `src="/default-avatar.png"`)
}

func TestUpdateProfileWithAvatar(t *testing.T) {
	env := newTestEnv(t)
	env.uploader.links = []string{"https://cdn.example.com/avatars/ada.png"}

	r := withSession(multipartRequest(t, "/profile",
		map[string]string{"name": "Ada Lovelace"},
		formFileField{field: "avatar", filename: "ada.png", content: pngBytes},
	), "u1")
	w := httptest.NewRecorder()
	newProfileHandler(env).UpdateProfile(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Profile updated")

	profile, err := env.profiles.ByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.DisplayName)
	assert.Equal(t, "https://cdn.example.com/avatars/ada.png", profile.PhotoURL)
}

func TestUpdateProfileRejections(t *testing.T) {
	env := newTestEnv(t)
	h := newProfileHandler(env)

	w := httptest.NewRecorder()
	h.UpdateProfile(w, withSession(formRequest(http.MethodPost, "/profile", url.Values{"name": {"  "}}), "u1"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Display name is required")

	w = httptest.NewRecorder()
	h.UpdateProfile(w, withSession(multipartRequest(t, "/profile",
		map[string]string{"name": "Ada"},
		formFileField{field: "avatar", filename: "ada.txt", content: []byte("hi")},
	), "u1"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Please upload a JPEG, PNG, WebP or GIF image.")
	assert.Zero(t, env.uploader.Calls())

	_, err := env.profiles.ByID(context.Background(), "u1")
	assert.Error(t, err)
}

func TestUpdateProfileUnreadableForm(t *testing.T) {
	env := newTestEnv(t)
	h := NewProfileHandler(env.profileService(), model.DefaultDisplay(), 0)

	w := httptest.NewRecorder()
	h.UpdateProfile(w, withSession(multipartRequest(t, "/profile",
		map[string]string{"name": "Ada"},
		formFileField{field: "avatar", filename: "ada.png", content: make([]byte, 2<<20)},
	), "u1"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "Your avatar is too large.")

	r := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader("garbage"))
	r.Header.Set("Content-Type", "multipart/form-data; boundary=theoryboard")
	w = httptest.NewRecorder()
	h.UpdateProfile(w, withSession(r, "u1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "We couldn&#39;t read your profile form.")
	assert.Zero(t, env.uploader.Calls())
}
