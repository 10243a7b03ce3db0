// Package watcher turns the polled "currently playing" snapshot into
// discrete track-change events for the live quiz mode.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/reverb-labs/encore/internal/core/domain"
	"github.com/reverb-labs/encore/internal/core/ports"
)

// TrackChange is emitted once per genuine track transition.
type TrackChange struct {
	Track domain.Track
	State domain.PlaybackState
}

// Watcher polls a playback source at a fixed interval and debounces
// repeated observations of the same track. lastTrackID has a single
// writer: the poll goroutine inside Run.
type Watcher struct {
	source      ports.PlaybackSource
	interval    time.Duration
	maxFailures int
	events      chan TrackChange
	logger      *slog.Logger

	lastTrackID string
	failures    int
	lastErr     error
}

// New builds a watcher. interval is the poll spacing; maxFailures is the
// consecutive-failure budget before the live session is declared dead.
func New(source ports.PlaybackSource, interval time.Duration, maxFailures int, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Watcher{
		source:      source,
		interval:    interval,
		maxFailures: maxFailures,
		events:      make(chan TrackChange, 4),
		logger:      logger.With(slog.String("component", "watcher")),
	}
}

// Events returns the track-change stream. The channel is closed when Run
// returns.
func (w *Watcher) Events() <-chan TrackChange {
	return w.events
}

// Run polls until ctx is canceled or the failure budget is exhausted.
// The first successful snapshot only seeds lastTrackID: the quiz starts
// on the next transition, not on whatever happened to be playing when the
// watcher came up. Returns nil on cancelation, or an error wrapping
// domain.ErrPlaybackUnavailable when the source stays unreachable.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	w.seed(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.poll(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) seed(ctx context.Context) {
	state, err := w.source.CurrentlyPlaying(ctx)
	if err != nil || !state.IsPlaying {
		return
	}
	w.lastTrackID = state.TrackID
	w.logger.Info("baseline track observed", slog.String("track_id", state.TrackID))
}

func (w *Watcher) poll(ctx context.Context) error {
	state, err := w.source.CurrentlyPlaying(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrNoActivePlayback) {
			// Idle, not broken.
			w.failures = 0
			return nil
		}

		w.failures++
		w.lastErr = err
		w.logger.Warn("poll failed",
			slog.Int("failures", w.failures),
			slog.Int("budget", w.maxFailures),
			slog.String("error", err.Error()))

		if w.failures >= w.maxFailures {
			return &ports.PlaybackUnavailableError{Failures: w.failures, Last: w.lastErr}
		}
		return nil
	}

	w.failures = 0

	if !state.IsPlaying {
		return nil
	}
	if state.TrackID == w.lastTrackID {
		return nil
	}

	w.lastTrackID = state.TrackID
	change := TrackChange{Track: state.Track, State: state}

	select {
	case w.events <- change:
		w.logger.Info("track changed",
			slog.String("track_id", state.TrackID),
			slog.String("title", state.Track.Title))
	default:
		w.logger.Warn("dropping track change, consumer is behind",
			slog.String("track_id", state.TrackID))
	}
	return nil
}
