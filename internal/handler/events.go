package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/flipcoin/miniapp/internal/profile"
)

// keepAliveInterval is how often an idle stream receives a comment line.
const keepAliveInterval = 25 * time.Second

// EventsHandler streams profile changes as server-sent events.
type EventsHandler struct {
	profile *profile.Manager
	logger  *slog.Logger
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(mgr *profile.Manager, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{profile: mgr, logger: logger}
}

// Stream handles GET /events. The current state is sent first so a view can
// render without a separate read.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sub := h.profile.Subscribe(8)
	defer h.profile.Unsubscribe(sub)

	initial := profile.Change{
		Profile:       h.profile.Current(),
		Authenticated: h.profile.Authenticated(),
		Reason:        "snapshot",
		At:            time.Now().UTC(),
	}
	if err := writeEvent(w, initial); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.logger.Warn("event stream cannot flush", "error", err)
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case c, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeEvent(w, c); err != nil {
				h.logger.Debug("event stream closed", "error", err)
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, c profile.Change) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: profile\ndata: %s\n\n", data)
	return err
}
