package ports

import (
	"context"
	"time"

	"github.com/reverb-labs/encore/internal/core/domain"
)

// TrackRepository caches quiz candidates locally so a pool can be served
// without the music service, and remembers played tracks so consecutive
// sessions do not repeat themselves. Scores are deliberately not persisted.
type TrackRepository interface {
	TrackSource

	SaveTracks(ctx context.Context, tracks []domain.Track) error
	MarkPlayed(ctx context.Context, trackID string, playedAt time.Time) error
	RecentlyPlayed(ctx context.Context, limit int) ([]string, error)
}
