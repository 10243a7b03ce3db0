// Package rest exposes the quiz over HTTP for the web variant. The round
// lifecycle stays in the core; handlers translate requests and map domain
// errors onto status codes.
package rest

import (
	"log/slog"
	"net/http"

	"github.com/reverb-labs/encore/internal/core/ports"
	"github.com/reverb-labs/encore/internal/core/services"
)

// Handler manages the HTTP interface for the quiz.
type Handler struct {
	quiz       *services.Quiz
	source     ports.PlaybackSource
	controller ports.PlaybackController
	hub        *Hub
	logger     *slog.Logger
	router     *http.ServeMux
}

// NewHandler initializes the HTTP adapter and sets up routes. source and
// controller may be nil when the server runs without live playback.
func NewHandler(quiz *services.Quiz, source ports.PlaybackSource, controller ports.PlaybackController, hub *Hub, logger *slog.Logger) *Handler {
	h := &Handler{
		quiz:       quiz,
		source:     source,
		controller: controller,
		hub:        hub,
		logger:     logger.With(slog.String("component", "rest")),
		router:     http.NewServeMux(),
	}

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.HandleFunc("GET /health", h.HealthCheck)

	h.router.HandleFunc("GET /api/track", h.CurrentTrack)
	h.router.HandleFunc("POST /api/round", h.OpenRound)
	h.router.HandleFunc("POST /api/round/guess", h.SubmitGuess)
	h.router.HandleFunc("POST /api/skip", h.Skip)
	h.router.HandleFunc("GET /api/session", h.SessionStats)
	h.router.HandleFunc("GET /api/events", h.Events)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Encore is live 🎶"})
}
