package ports

import (
	"context"
	"time"

	"github.com/reverb-labs/encore/internal/core/domain"
)

// AudioPlayer plays a track's preview excerpt, bounded by clip. The core
// never inspects audio data; it only learns whether playback succeeded.
// A track without a usable preview yields domain.ErrNoPlayableContent.
type AudioPlayer interface {
	Play(ctx context.Context, track domain.Track, clip time.Duration) error
}
