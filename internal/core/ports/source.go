package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/reverb-labs/encore/internal/core/domain"
)

// ErrNoActivePlayback indicates the live source reports nothing playing.
// It is an idle condition, not a failure.
var ErrNoActivePlayback = errors.New("ports: no active playback")

// PlaybackUnavailableError provides context for a live session that ended
// because the playback source exhausted its failure budget.
type PlaybackUnavailableError struct {
	Failures int
	Last     error
}

func (e *PlaybackUnavailableError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("playback source unavailable after %d failed polls", e.Failures)
	}
	return fmt.Sprintf("playback source unavailable after %d failed polls: %v", e.Failures, e.Last)
}

func (e *PlaybackUnavailableError) Is(target error) bool {
	return target == domain.ErrPlaybackUnavailable
}

func (e *PlaybackUnavailableError) Unwrap() error {
	return e.Last
}

// TrackSource supplies a finite ordered sequence of quiz candidates.
type TrackSource interface {
	QuizTracks(ctx context.Context, limit int) ([]domain.Track, error)
}

// PlaybackSource supplies a snapshot of what the user is playing right now.
// It may fail transiently; callers are expected to retry on a budget.
type PlaybackSource interface {
	CurrentlyPlaying(ctx context.Context) (domain.PlaybackState, error)
}

// PlaybackController advances the user's live playback (web variant).
type PlaybackController interface {
	SkipToNext(ctx context.Context) error
}
