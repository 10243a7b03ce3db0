package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/reverb-labs/encore/internal/core/domain"
	"github.com/reverb-labs/encore/internal/core/ports"
)

const (
	errCodeRoundClosed      = "ROUND_CLOSED"
	errCodeRoundOpen        = "ROUND_OPEN"
	errCodeNoActivePlayback = "NO_ACTIVE_PLAYBACK"
	errCodeNotPlayable      = "NOT_PLAYABLE"
)

// trackView is what the client may see mid-round: hints only, never the
// answer. The answer fields are filled in once the round is scored.
type trackView struct {
	Album      string `json:"album,omitempty"`
	Year       string `json:"year,omitempty"`
	Popularity int    `json:"popularity,omitempty"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
}

type roundView struct {
	ID    string     `json:"id"`
	State string     `json:"state"`
	Track trackView  `json:"track"`
	Score *scoreView `json:"score,omitempty"`
}

type scoreView struct {
	TitlePoints  int  `json:"title_points"`
	ArtistPoints int  `json:"artist_points"`
	Total        int  `json:"total"`
	TitleRatio   int  `json:"title_ratio"`
	ArtistRatio  int  `json:"artist_ratio"`
	TimedOut     bool `json:"timed_out"`
}

func viewOf(round domain.Round, state domain.RoundState) roundView {
	view := roundView{
		ID:    round.ID,
		State: state.String(),
		Track: trackView{
			Album:      round.Track.Album,
			Year:       round.Track.Year,
			Popularity: round.Track.Popularity,
		},
	}
	if state == domain.RoundScored {
		view.Track.Title = round.Track.Title
		view.Track.Artist = round.Track.Artist
		view.Score = &scoreView{
			TitlePoints:  round.Score.TitlePoints,
			ArtistPoints: round.Score.ArtistPoints,
			Total:        round.Score.Total,
			TitleRatio:   round.Score.TitleRatio,
			ArtistRatio:  round.Score.ArtistRatio,
			TimedOut:     round.TimedOut,
		}
	}
	return view
}

// CurrentTrack handles GET /api/track.
func (h *Handler) CurrentTrack(w http.ResponseWriter, r *http.Request) {
	round, state := h.quiz.Rounds().Current()
	if state == domain.RoundIdle {
		writeError(w, http.StatusNotFound, "no round in progress")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(round, state))
}

// OpenRound handles POST /api/round: it snapshots the user's live playback
// and opens a guessing round for that track.
func (h *Handler) OpenRound(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeError(w, http.StatusNotImplemented, "live playback is not configured")
		return
	}

	state, err := h.source.CurrentlyPlaying(r.Context())
	if err != nil {
		if errors.Is(err, ports.ErrNoActivePlayback) {
			writeErrorWithCode(w, http.StatusConflict, "nothing is playing", errCodeNoActivePlayback)
			return
		}
		h.logger.Error("playback lookup failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "playback source unavailable")
		return
	}

	if err := h.quiz.OpenLiveRound(r.Context(), state.Track); err != nil {
		if errors.Is(err, domain.ErrRoundOpen) {
			writeErrorWithCode(w, http.StatusConflict, "a round is already open", errCodeRoundOpen)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	round, roundState := h.quiz.Rounds().Current()
	writeJSON(w, http.StatusCreated, viewOf(round, roundState))
}

type guessRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// SubmitGuess handles POST /api/round/guess.
func (h *Handler) SubmitGuess(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req guessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	round, err := h.quiz.Guess(req.Title, req.Artist)
	if err != nil {
		if errors.Is(err, domain.ErrRoundClosed) {
			writeErrorWithCode(w, http.StatusConflict, "round already closed", errCodeRoundClosed)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, viewOf(round, domain.RoundScored))
}

// Skip handles POST /api/skip: advance live playback to the next track.
func (h *Handler) Skip(w http.ResponseWriter, r *http.Request) {
	if h.controller == nil {
		writeError(w, http.StatusNotImplemented, "live playback is not configured")
		return
	}

	if err := h.controller.SkipToNext(r.Context()); err != nil {
		if errors.Is(err, ports.ErrNoActivePlayback) {
			writeErrorWithCode(w, http.StatusConflict, "nothing is playing", errCodeNoActivePlayback)
			return
		}
		h.logger.Error("skip failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "playback source unavailable")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type sessionResponse struct {
	ID         string `json:"id"`
	RoundCount int    `json:"round_count"`
	TotalScore int    `json:"total_score"`
}

// SessionStats handles GET /api/session.
func (h *Handler) SessionStats(w http.ResponseWriter, r *http.Request) {
	sess := h.quiz.Session()
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:         sess.ID(),
		RoundCount: sess.RoundCount(),
		TotalScore: sess.TotalScore(),
	})
}
