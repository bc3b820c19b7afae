package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/theoryboard/theoryboard/internal/ctxkeys"
	"github.com/theoryboard/theoryboard/internal/model"
	"github.com/theoryboard/theoryboard/internal/service"
	"github.com/theoryboard/theoryboard/internal/ui"
	"github.com/theoryboard/theoryboard/internal/ui/components/toast"
	"github.com/theoryboard/theoryboard/internal/ui/pages"
	"github.com/theoryboard/theoryboard/internal/upload"
	"github.com/theoryboard/theoryboard/internal/validation"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	fallback       model.Display
	maxUploadBytes int64
}

func NewProfileHandler(profileService *service.ProfileService, fallback model.Display, maxUploadBytes int64) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		fallback:       fallback,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *ProfileHandler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.Session(r.Context())

	profile, err := h.profileService.ByUserID(r.Context(), session.UserID)
	if err != nil {
		slog.Error("failed to load profile", "error", err, "user_id", session.UserID)
		ui.RenderStatus(w, r, http.StatusInternalServerError, pages.Error("We couldn't load your profile. Please try again."))
		return
	}

	ui.Render(w, r, pages.Profile(h.props(profile)))
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.Session(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	err := r.ParseMultipartForm(32 << 20)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		slog.Warn("failed to parse profile form", "error", err, "user_id", session.UserID)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, http.StatusRequestEntityTooLarge, "Your avatar is too large.")
			return
		}
		h.fail(w, r, http.StatusBadRequest, "We couldn't read your profile form. Please try again.")
		return
	}

	name := r.FormValue("name")

	err = validation.ValidateName(name)
	if err != nil {
		h.failWithName(w, r, http.StatusUnprocessableEntity, name, capitalize(err.Error()))
		return
	}

	avatar, err := formFile(r, "avatar")
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "We couldn't read your avatar. Please try again.")
		return
	}

	profile, err := h.profileService.Update(r.Context(), session.UserID, name, avatar)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAvatar):
			h.failWithName(w, r, http.StatusUnprocessableEntity, name, "Please upload a JPEG, PNG, WebP or GIF image.")
		case errors.Is(err, upload.ErrNoLinks):
			h.failWithName(w, r, http.StatusBadGateway, name, "We couldn't upload your avatar. Please try again.")
		default:
			slog.Error("failed to update profile", "error", err, "user_id", session.UserID)
			h.failWithName(w, r, http.StatusInternalServerError, name, "Failed to update profile")
		}
		return
	}

	slog.Info("profile updated", "user_id", session.UserID, "avatar_changed", avatar != nil)

	// The nav reads the profile from context
	r = r.WithContext(ctxkeys.WithProfile(r.Context(), profile))
	ui.Render(w, r, pages.Profile(h.props(profile), toast.Success("Profile updated")))
}

func (h *ProfileHandler) props(profile *model.UserProfile) pages.ProfileProps {
	return pages.ProfileProps{
		Name:    profile.DisplayName,
		Display: model.ResolveDisplay(profile, h.fallback),
	}
}

func (h *ProfileHandler) fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.failWithName(w, r, status, "", message)
}

func (h *ProfileHandler) failWithName(w http.ResponseWriter, r *http.Request, status int, name, message string) {
	current := ctxkeys.Profile(r.Context())
	props := pages.ProfileProps{Name: name, Display: model.ResolveDisplay(current, h.fallback), Error: message}
	ui.RenderStatus(w, r, status, pages.Profile(props, toast.Error(message)))
}
