package spotify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/reverb-labs/encore/internal/core/domain"
	"github.com/reverb-labs/encore/internal/core/ports"
)

// CurrentlyPlaying reports the user's active playback. A 204 response, a
// missing item, and non-track content (podcasts, ads) all map to
// ports.ErrNoActivePlayback.
func (c *Client) CurrentlyPlaying(ctx context.Context) (domain.PlaybackState, error) {
	reqURL := fmt.Sprintf("%s/me/player/currently-playing", c.baseURL)

	var body currentlyPlayingResponse
	status, err := c.getJSON(ctx, reqURL, &body)
	if err != nil {
		return domain.PlaybackState{}, fmt.Errorf("spotify adapter: currently playing: %w", err)
	}

	switch {
	case status == http.StatusNoContent:
		return domain.PlaybackState{}, ports.ErrNoActivePlayback
	case status != http.StatusOK:
		return domain.PlaybackState{}, fmt.Errorf("spotify adapter: currently playing status %d", status)
	}

	if body.Item == nil {
		return domain.PlaybackState{}, ports.ErrNoActivePlayback
	}
	if body.CurrentlyPlayingType != "" && body.CurrentlyPlayingType != "track" {
		return domain.PlaybackState{}, ports.ErrNoActivePlayback
	}

	track := mapTrackToDomain(*body.Item)
	return domain.PlaybackState{
		TrackID:    track.ID,
		IsPlaying:  body.IsPlaying,
		ProgressMs: body.ProgressMs,
		Device:     body.Device.Name,
		Track:      track,
	}, nil
}

// SkipToNext advances the user's player to the next track.
func (c *Client) SkipToNext(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("spotify adapter: rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/me/player/next", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return fmt.Errorf("spotify adapter: build skip request: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return fmt.Errorf("spotify adapter: skip to next: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusAccepted:
		return nil
	case http.StatusNotFound:
		return ports.ErrNoActivePlayback
	default:
		return fmt.Errorf("spotify adapter: skip to next status %d", resp.StatusCode)
	}
}
