package rest_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reverb-labs/encore/internal/adapters/rest"
	"github.com/reverb-labs/encore/internal/core/domain"
	"github.com/reverb-labs/encore/internal/core/ports"
	"github.com/reverb-labs/encore/internal/core/scoring"
	"github.com/reverb-labs/encore/internal/core/services"
)

// --- Stubs ---

type stubPlayback struct {
	state domain.PlaybackState
	err   error
}

func (s *stubPlayback) CurrentlyPlaying(ctx context.Context) (domain.PlaybackState, error) {
	return s.state, s.err
}

type stubController struct {
	skipped int
	err     error
}

func (s *stubController) SkipToNext(ctx context.Context) error {
	if s.err != nil {
		return s.err
	}
	s.skipped++
	return nil
}

type stubSource struct{}

func (stubSource) QuizTracks(ctx context.Context, limit int) ([]domain.Track, error) {
	return nil, domain.ErrNotFound
}

type stubPlayer struct{}

func (stubPlayer) Play(ctx context.Context, track domain.Track, clip time.Duration) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTrack() domain.Track {
	return domain.Track{
		ID:         "t1",
		Title:      "Bohemian Rhapsody",
		Artist:     "Queen",
		Album:      "A Night at the Opera",
		Year:       "1975",
		Popularity: 88,
		PreviewURL: "https://cdn/p.mp3",
	}
}

type fixture struct {
	handler  *rest.Handler
	quiz     *services.Quiz
	playback *stubPlayback
	control  *stubController
	hub      *rest.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := testLogger()
	sess := services.NewSession()
	rounds := services.NewRoundController(scoring.Classic, time.Minute, sess, logger)
	t.Cleanup(rounds.Stop)

	quiz := services.NewQuiz(stubSource{}, stubPlayer{}, nil, rounds, sess, 15*time.Second, logger)

	playback := &stubPlayback{state: domain.PlaybackState{
		TrackID:   "t1",
		IsPlaying: true,
		Track:     testTrack(),
	}}
	control := &stubController{}
	hub := rest.NewHub(logger)

	return &fixture{
		handler:  rest.NewHandler(quiz, playback, control, hub, logger),
		quiz:     quiz,
		playback: playback,
		control:  control,
		hub:      hub,
	}
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// --- Tests ---

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)

	rec := doJSON(t, f.handler, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}

func TestOpenRoundFromLivePlayback(t *testing.T) {
	f := newFixture(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/round", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (body %s)", rec.Code, rec.Body)
	}

	var view struct {
		State string `json:"state"`
		Track struct {
			Title string `json:"title"`
			Album string `json:"album"`
		} `json:"track"`
	}
	decodeBody(t, rec, &view)

	if view.State != "awaiting_guess" {
		t.Errorf("state: got %q, want awaiting_guess", view.State)
	}
	if view.Track.Title != "" {
		t.Error("open round must not reveal the title")
	}
	if view.Track.Album != "A Night at the Opera" {
		t.Errorf("album hint: got %q", view.Track.Album)
	}
}

func TestOpenRoundNothingPlaying(t *testing.T) {
	f := newFixture(t)
	f.playback.err = ports.ErrNoActivePlayback

	rec := doJSON(t, f.handler, http.MethodPost, "/api/round", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rec.Code)
	}

	var resp struct {
		Code string `json:"code"`
	}
	decodeBody(t, rec, &resp)
	if resp.Code != "NO_ACTIVE_PLAYBACK" {
		t.Errorf("code: got %q, want NO_ACTIVE_PLAYBACK", resp.Code)
	}
}

func TestOpenRoundTwiceConflicts(t *testing.T) {
	f := newFixture(t)

	if rec := doJSON(t, f.handler, http.MethodPost, "/api/round", ""); rec.Code != http.StatusCreated {
		t.Fatalf("first round: got %d, want 201", rec.Code)
	}
	rec := doJSON(t, f.handler, http.MethodPost, "/api/round", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second round: got %d, want 409", rec.Code)
	}

	var resp struct {
		Code string `json:"code"`
	}
	decodeBody(t, rec, &resp)
	if resp.Code != "ROUND_OPEN" {
		t.Errorf("code: got %q, want ROUND_OPEN", resp.Code)
	}
}

func TestSubmitGuessScoresAndReveals(t *testing.T) {
	f := newFixture(t)

	if rec := doJSON(t, f.handler, http.MethodPost, "/api/round", ""); rec.Code != http.StatusCreated {
		t.Fatalf("open round: got %d", rec.Code)
	}

	rec := doJSON(t, f.handler, http.MethodPost, "/api/round/guess",
		`{"title": "bohemian rapsody", "artist": "queen"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body %s)", rec.Code, rec.Body)
	}

	var view struct {
		State string `json:"state"`
		Track struct {
			Title  string `json:"title"`
			Artist string `json:"artist"`
		} `json:"track"`
		Score *struct {
			TitlePoints  int `json:"title_points"`
			ArtistPoints int `json:"artist_points"`
			Total        int `json:"total"`
		} `json:"score"`
	}
	decodeBody(t, rec, &view)

	if view.State != "scored" {
		t.Errorf("state: got %q, want scored", view.State)
	}
	if view.Track.Title != "Bohemian Rhapsody" || view.Track.Artist != "Queen" {
		t.Errorf("answer not revealed: got %q / %q", view.Track.Title, view.Track.Artist)
	}
	if view.Score == nil {
		t.Fatal("score missing from response")
	}
	if view.Score.TitlePoints != 60 || view.Score.ArtistPoints != 40 {
		t.Errorf("points: got %d/%d, want 60/40", view.Score.TitlePoints, view.Score.ArtistPoints)
	}
	if view.Score.Total != 100 {
		t.Errorf("total: got %d, want 100", view.Score.Total)
	}
}

func TestSubmitGuessWithoutRound(t *testing.T) {
	f := newFixture(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/round/guess",
		`{"title": "anything", "artist": "anyone"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rec.Code)
	}

	var resp struct {
		Code string `json:"code"`
	}
	decodeBody(t, rec, &resp)
	if resp.Code != "ROUND_CLOSED" {
		t.Errorf("code: got %q, want ROUND_CLOSED", resp.Code)
	}
}

func TestSubmitGuessRequiresJSON(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/round/guess", strings.NewReader("title=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status: got %d, want 415", rec.Code)
	}
}

func TestCurrentTrackLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := doJSON(t, f.handler, http.MethodGet, "/api/track", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("idle status: got %d, want 404", rec.Code)
	}

	if rec := doJSON(t, f.handler, http.MethodPost, "/api/round", ""); rec.Code != http.StatusCreated {
		t.Fatalf("open round: got %d", rec.Code)
	}

	rec = doJSON(t, f.handler, http.MethodGet, "/api/track", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("mid-round status: got %d, want 200", rec.Code)
	}
	var view struct {
		Track struct {
			Title string `json:"title"`
		} `json:"track"`
	}
	decodeBody(t, rec, &view)
	if view.Track.Title != "" {
		t.Error("mid-round view must not reveal the title")
	}
}

func TestSkip(t *testing.T) {
	f := newFixture(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/skip", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", rec.Code)
	}
	if f.control.skipped != 1 {
		t.Errorf("skips: got %d, want 1", f.control.skipped)
	}

	f.control.err = ports.ErrNoActivePlayback
	rec = doJSON(t, f.handler, http.MethodPost, "/api/skip", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rec.Code)
	}
}

func TestSessionStats(t *testing.T) {
	f := newFixture(t)

	if rec := doJSON(t, f.handler, http.MethodPost, "/api/round", ""); rec.Code != http.StatusCreated {
		t.Fatalf("open round: got %d", rec.Code)
	}
	if rec := doJSON(t, f.handler, http.MethodPost, "/api/round/guess",
		`{"title": "Bohemian Rhapsody", "artist": "Queen"}`); rec.Code != http.StatusOK {
		t.Fatalf("guess: got %d", rec.Code)
	}

	rec := doJSON(t, f.handler, http.MethodGet, "/api/session", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var resp struct {
		RoundCount int `json:"round_count"`
		TotalScore int `json:"total_score"`
	}
	decodeBody(t, rec, &resp)
	if resp.RoundCount != 1 {
		t.Errorf("round_count: got %d, want 1", resp.RoundCount)
	}
	if resp.TotalScore != 100 {
		t.Errorf("total_score: got %d, want 100", resp.TotalScore)
	}
}

func TestEventsStream(t *testing.T) {
	f := newFixture(t)

	server := httptest.NewServer(f.handler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/events", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type: got %q", ct)
	}

	// The subscriber registers before the handler writes headers, so a
	// publish after the response starts is guaranteed to be delivered.
	f.hub.Publish("round_scored", map[string]int{"total": 100})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v (got %q so far)", err, lines)
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	if lines[0] != "event: round_scored" {
		t.Errorf("event line: got %q", lines[0])
	}
	if lines[1] != `data: {"total":100}` {
		t.Errorf("data line: got %q", lines[1])
	}
}
