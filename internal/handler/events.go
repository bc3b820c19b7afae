package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/theoryboard/theoryboard/internal/ctxkeys"
	"github.com/theoryboard/theoryboard/internal/identity"
)

const eventsHeartbeat = 25 * time.Second

type SessionSubscriber interface {
	Subscribe(ctx context.Context) (<-chan identity.SessionEvent, func())
}

// EventsHandler streams the signed-in user's own session changes as
// server-sent events, so open tabs can follow a sign-out.
type EventsHandler struct {
	sessions  SessionSubscriber
	heartbeat time.Duration
}

func NewEventsHandler(sessions SessionSubscriber) *EventsHandler {
	return &EventsHandler{
		sessions:  sessions,
		heartbeat: eventsHeartbeat,
	}
}

func (h *EventsHandler) SessionEvents(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.Session(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel := h.sessions.Subscribe(r.Context())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	_, err := fmt.Fprint(w, ": connected\n\n")
	if err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			_, err = fmt.Fprint(w, ": ping\n\n")
			if err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.UserID != session.UserID {
				continue
			}

			data, err := json.Marshal(ev)
			if err != nil {
				slog.Error("failed to encode session event", "error", err)
				continue
			}
			_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
			if err != nil {
				return
			}
			flusher.Flush()

			// The cookie this stream was opened with is gone
			if ev.Kind == identity.SignedOut {
				return
			}
		}
	}
}
