package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/theoryboard/theoryboard/internal/ctxkeys"
	"github.com/theoryboard/theoryboard/internal/service"
	"github.com/theoryboard/theoryboard/internal/ui"
	"github.com/theoryboard/theoryboard/internal/ui/pages"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
	}
}

func (h *FeedHandler) FeedPage(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.Session(r.Context())

	entries, err := h.feedService.Assemble(r.Context(), session)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			redirect(w, r, "/login")
			return
		}
		if r.Context().Err() != nil {
			// Client went away; nothing to render
			return
		}
		slog.Error("failed to assemble feed", "error", err, "user_id", session.UserID)
		ui.RenderStatus(w, r, http.StatusInternalServerError, pages.Error("We couldn't load the feed. Please try again."))
		return
	}

	suggested, err := h.feedService.SuggestedUsers(r.Context())
	if err != nil {
		slog.Error("failed to load suggested users", "error", err, "user_id", session.UserID)
		suggested = nil
	}

	ui.Render(w, r, pages.Feed(pages.FeedProps{
		Entries:   entries,
		Suggested: suggested,
	}))
}
