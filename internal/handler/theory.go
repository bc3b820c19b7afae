package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/theoryboard/theoryboard/internal/ctxkeys"
	"github.com/theoryboard/theoryboard/internal/service"
	"github.com/theoryboard/theoryboard/internal/ui"
	"github.com/theoryboard/theoryboard/internal/ui/components/toast"
	"github.com/theoryboard/theoryboard/internal/ui/pages"
)

const mediaField = "media"

type TheoryHandler struct {
	submissionService *service.SubmissionService
	maxUploadBytes    int64
}

func NewTheoryHandler(submissionService *service.SubmissionService, maxUploadBytes int64) *TheoryHandler {
	return &TheoryHandler{
		submissionService: submissionService,
		maxUploadBytes:    maxUploadBytes,
	}
}

func (h *TheoryHandler) NewTheoryPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.NewTheory(pages.TheoryFormProps{}))
}

// Submit handles the theory form. Success clears the form; any failure
// re-renders it with what the user typed.
func (h *TheoryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.Session(r.Context())

	// Slack for the title, description and multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	err := r.ParseMultipartForm(32 << 20)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		slog.Warn("failed to parse theory form", "error", err, "user_id", session.UserID)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respond(w, r, http.StatusRequestEntityTooLarge, pages.TheoryFormProps{}, "Your upload is too large.")
			return
		}
		h.respond(w, r, http.StatusBadRequest, pages.TheoryFormProps{}, "We couldn't read your submission. Please try again.")
		return
	}

	input := service.TheoryInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	media, err := formFile(r, mediaField)
	if err != nil {
		slog.Warn("failed to read theory media", "error", err, "user_id", session.UserID)
		h.respond(w, r, http.StatusBadRequest, formProps(input), "We couldn't read your file. Please try again.")
		return
	}
	input.Media = media

	_, err = h.submissionService.Submit(r.Context(), session, input)
	if err != nil {
		var invalid *service.InvalidTheoryError
		var uploadErr *service.UploadError
		var writeErr *service.WriteError

		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			redirect(w, r, "/login")
		case errors.As(err, &invalid):
			h.respond(w, r, http.StatusUnprocessableEntity, formProps(input), capitalize(invalid.Message))
		case errors.As(err, &uploadErr):
			h.respond(w, r, http.StatusBadGateway, formProps(input), "We couldn't upload your media. Please try again.")
		case errors.As(err, &writeErr):
			h.respond(w, r, http.StatusInternalServerError, formProps(input), "We couldn't save your theory. Please try again.")
		default:
			slog.Error("theory submission failed", "error", err, "user_id", session.UserID)
			h.respond(w, r, http.StatusInternalServerError, formProps(input), "Something went wrong. Please try again.")
		}
		return
	}

	h.respondSuccess(w, r)
}

func (h *TheoryHandler) respond(w http.ResponseWriter, r *http.Request, status int, props pages.TheoryFormProps, message string) {
	props.Error = message
	h.render(w, r, status, props, toast.Error(message))
}

func (h *TheoryHandler) respondSuccess(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pages.TheoryFormProps{}, toast.Success("Your theory has been submitted."))
}

// render swaps just the form for htmx, which ignores error statuses by default
func (h *TheoryHandler) render(w http.ResponseWriter, r *http.Request, status int, props pages.TheoryFormProps, t templ.Component) {
	if ui.IsHTMX(r) {
		ui.RenderFragment(w, r, pages.NewTheory(props), pages.TheoryFormID)
		ui.RenderOOB(w, r, t, "beforeend:#"+toast.ContainerID)
		return
	}
	ui.RenderStatus(w, r, status, pages.NewTheory(props, t))
}

func formProps(input service.TheoryInput) pages.TheoryFormProps {
	return pages.TheoryFormProps{
		Title:       input.Title,
		Description: input.Description,
	}
}

// formFile returns the uploaded file header, or nil when the field was left empty
func formFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = file.Close()

	if header.Size == 0 {
		return nil, nil
	}
	return header, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
