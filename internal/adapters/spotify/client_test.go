package spotify_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reverb-labs/encore/internal/adapters/spotify"
	"github.com/reverb-labs/encore/internal/core/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func trackJSON(id, title, artist, previewURL string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"name": %q,
		"type": "track",
		"duration_ms": 210000,
		"popularity": 80,
		"preview_url": %q,
		"artists": [{"id": "a1", "name": %q}],
		"album": {"name": "Album", "release_date": "2019-11-29"}
	}`, id, title, previewURL, artist)
}

// --- Currently playing ---

func TestCurrentlyPlaying(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   error
		wantID    string
		wantState bool
	}{
		{
			name:   "active track",
			status: http.StatusOK,
			body: fmt.Sprintf(`{
				"is_playing": true,
				"progress_ms": 42000,
				"currently_playing_type": "track",
				"device": {"name": "Kitchen"},
				"item": %s
			}`, trackJSON("t1", "Blinding Lights", "The Weeknd", "https://cdn/p.mp3")),
			wantID:    "t1",
			wantState: true,
		},
		{
			name:    "no content means idle",
			status:  http.StatusNoContent,
			body:    "",
			wantErr: ports.ErrNoActivePlayback,
		},
		{
			name:    "missing item means idle",
			status:  http.StatusOK,
			body:    `{"is_playing": false, "item": null}`,
			wantErr: ports.ErrNoActivePlayback,
		},
		{
			name:    "podcast is not a track",
			status:  http.StatusOK,
			body:    fmt.Sprintf(`{"is_playing": true, "currently_playing_type": "episode", "item": %s}`, trackJSON("e1", "Some Episode", "Host", "")),
			wantErr: ports.ErrNoActivePlayback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/me/player/currently-playing" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := spotify.NewClient(server.Client(), server.URL, testLogger())

			state, err := client.CurrentlyPlaying(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if state.TrackID != tt.wantID {
				t.Errorf("TrackID: got %q, want %q", state.TrackID, tt.wantID)
			}
			if state.IsPlaying != tt.wantState {
				t.Errorf("IsPlaying: got %v, want %v", state.IsPlaying, tt.wantState)
			}
			if state.Device != "Kitchen" {
				t.Errorf("Device: got %q, want Kitchen", state.Device)
			}
			if state.Track.Artist != "The Weeknd" {
				t.Errorf("Artist: got %q", state.Track.Artist)
			}
		})
	}
}

func TestSkipToNextNoActiveDevice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s, want POST", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := spotify.NewClient(server.Client(), server.URL, testLogger())

	err := client.SkipToNext(context.Background())
	if !errors.Is(err, ports.ErrNoActivePlayback) {
		t.Fatalf("got error %v, want ErrNoActivePlayback", err)
	}
}

// --- Retry policy ---

func TestRetryRecoversAfterServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(fmt.Sprintf(`{
			"is_playing": true,
			"currently_playing_type": "track",
			"item": %s
		}`, trackJSON("t1", "Song", "Artist", "https://cdn/p.mp3"))))
	}))
	defer server.Close()

	client := spotify.NewClient(server.Client(), server.URL, testLogger())

	state, err := client.CurrentlyPlaying(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.TrackID != "t1" {
		t.Errorf("TrackID: got %q, want t1", state.TrackID)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls: got %d, want 2", got)
	}
}

func TestRetryGivesUpAfterBudget(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := spotify.NewClient(server.Client(), server.URL, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := client.CurrentlyPlaying(ctx)
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls: got %d, want 3", got)
	}
}

// --- Quiz pool ---

func TestQuizTracksDiscoverFiltersAndDedupes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(fmt.Sprintf(`{"tracks": {"items": [%s, %s, %s]}}`,
			trackJSON("t1", "Hotel California", "Eagles", "https://cdn/1.mp3"),
			trackJSON("t2", "Hotel California - Remaster", "Eagles", "https://cdn/2.mp3"),
			trackJSON("t3", "No Preview Here", "Nobody", ""),
		)))
	}))
	defer server.Close()

	client := spotify.NewClient(server.Client(), server.URL, testLogger())

	tracks, err := client.QuizTracks(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("got %d tracks, want 1 (remaster and preview-less filtered)", len(tracks))
	}
	if tracks[0].ID != "t1" {
		t.Errorf("ID: got %q, want t1", tracks[0].ID)
	}
	if !tracks[0].PreviewAvailable() {
		t.Error("surviving track should carry a preview")
	}
}

func TestQuizTracksTopStrategy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/top/tracks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(fmt.Sprintf(`{"items": [%s, %s]}`,
			trackJSON("t1", "One", "Artist A", "https://cdn/1.mp3"),
			trackJSON("t2", "Two", "Artist B", "https://cdn/2.mp3"),
		)))
	}))
	defer server.Close()

	client := spotify.NewClient(server.Client(), server.URL, testLogger())
	if err := client.SetPoolStrategy(spotify.PoolTop); err != nil {
		t.Fatalf("SetPoolStrategy: %v", err)
	}

	tracks, err := client.QuizTracks(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
}

func TestSetPoolStrategyRejectsUnknown(t *testing.T) {
	client := spotify.NewClient(nil, "http://localhost", testLogger())
	if err := client.SetPoolStrategy("bogus"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
