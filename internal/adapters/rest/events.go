package rest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

// Hub fans round and playback events out to connected SSE clients. Slow
// clients lose events rather than stalling the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[chan []byte]struct{}),
		logger: logger.With(slog.String("component", "events")),
	}
}

// Publish sends a named event with a JSON payload to every subscriber.
func (h *Hub) Publish(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("event marshal failed",
			slog.String("event", event),
			slog.String("error", err.Error()))
		return
	}
	frame := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, data))

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub <- frame:
		default:
			h.logger.Warn("dropping event for slow subscriber", slog.String("event", event))
		}
	}
}

func (h *Hub) subscribe() chan []byte {
	sub := make(chan []byte, 8)
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unsubscribe(sub chan []byte) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// Events handles GET /api/events as a server-sent event stream.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeError(w, http.StatusNotImplemented, "event stream is not configured")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Subscribe before the headers go out so no event published after the
	// client sees the response can be missed.
	sub := h.hub.subscribe()
	defer h.hub.unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame := <-sub:
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
