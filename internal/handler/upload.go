package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/theoryboard/theoryboard/internal/ctxkeys"
	"github.com/theoryboard/theoryboard/internal/service"
	"github.com/theoryboard/theoryboard/internal/upload"
)

// TokenOwner is the owner recorded for uploads authorized by the bearer token.
const TokenOwner = "upload-token"

// UploadHandler serves the blob endpoint that upload.Client speaks to.
// Browsers authenticate with their session cookie; other instances send the
// shared token as a bearer credential.
type UploadHandler struct {
	fileService    *service.FileService
	maxUploadBytes int64
	token          string
}

func NewUploadHandler(fileService *service.FileService, maxUploadBytes int64, token string) *UploadHandler {
	return &UploadHandler{
		fileService:    fileService,
		maxUploadBytes: maxUploadBytes,
		token:          token,
	}
}

// Upload accepts one multipart file in the "file" field and answers
// 201 {"links": [url]} or {"error": message}.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, upload.Response{Error: "not signed in"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, upload.Response{Error: "file too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, upload.Response{Error: "expected a multipart form"})
		return
	}

	header, err := formFile(r, upload.FormField)
	if err != nil || header == nil {
		writeJSON(w, http.StatusBadRequest, upload.Response{Error: "file is required"})
		return
	}

	record, url, err := h.fileService.Upload(r.Context(), owner, header)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFile) {
			writeJSON(w, http.StatusBadRequest, upload.Response{Error: err.Error()})
			return
		}
		slog.Error("upload failed", "error", err, "user_id", owner, "filename", header.Filename)
		writeJSON(w, http.StatusInternalServerError, upload.Response{Error: "upload failed"})
		return
	}

	slog.Info("file uploaded", "file_id", record.ID, "user_id", owner, "size", record.Size, "mime_type", record.MimeType)
	writeJSON(w, http.StatusCreated, upload.Response{Links: []string{url}})
}

// owner resolves who the upload is for: the signed-in user, or TokenOwner
// when the request carries the configured bearer token.
func (h *UploadHandler) owner(r *http.Request) (string, bool) {
	session := ctxkeys.Session(r.Context())
	if session.Live() {
		return session.UserID, true
	}
	if h.token == "" {
		return "", false
	}
	bearer, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || subtle.ConstantTimeCompare([]byte(bearer), []byte(h.token)) != 1 {
		return "", false
	}
	return TokenOwner, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode json response", "error", err)
	}
}
