package spotify

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"

	"github.com/reverb-labs/encore/internal/core/domain"
)

// Pool strategies for QuizTracks.
const (
	PoolTop      = "top"
	PoolDiscover = "discover"
)

var discoverGenres = []string{
	"pop", "rock", "hip-hop", "indie", "electronic", "jazz", "country", "r&b",
}

var discoverArtists = []string{
	"Taylor Swift", "Ed Sheeran", "The Weeknd", "Ariana Grande", "Drake", "Billie Eilish",
}

// QuizTracks returns up to limit shuffled candidates with previews, drawn
// from the configured pool strategy.
func (c *Client) QuizTracks(ctx context.Context, limit int) ([]domain.Track, error) {
	if limit < 1 {
		limit = 1
	}

	var (
		tracks []domain.Track
		err    error
	)
	switch c.poolStrategy {
	case PoolTop:
		tracks, err = c.userTopTracks(ctx, limit)
	default:
		tracks, err = c.discoverTracks(ctx, limit)
	}
	if err != nil {
		return nil, err
	}

	rand.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

// userTopTracks draws the pool from the user's medium-term listening.
func (c *Client) userTopTracks(ctx context.Context, limit int) ([]domain.Track, error) {
	reqURL := fmt.Sprintf("%s/me/top/tracks?limit=%d&time_range=medium_term", c.baseURL, limit*2)

	var body topTracksResponse
	status, err := c.getJSON(ctx, reqURL, &body)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: top tracks: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("spotify adapter: top tracks status %d", status)
	}

	return c.collectPlayable(nil, body.Items, limit), nil
}

// discoverTracks builds a pool from catalog searches: a couple of genres,
// then popular artists, then a recent-years sweep until the pool is full.
func (c *Client) discoverTracks(ctx context.Context, limit int) ([]domain.Track, error) {
	searchLimit := limit
	if searchLimit < 5 {
		searchLimit = 5
	}

	var pool []domain.Track

	for _, genre := range pickTwo(discoverGenres) {
		if len(pool) >= limit {
			break
		}
		found, err := c.searchTracks(ctx, fmt.Sprintf("genre:%s", genre), searchLimit)
		if err != nil {
			c.logger.Warn("genre search failed",
				slog.String("genre", genre),
				slog.String("error", err.Error()))
			continue
		}
		pool = c.collectPlayable(pool, found, limit)
	}

	for _, artist := range pickTwo(discoverArtists) {
		if len(pool) >= limit {
			break
		}
		found, err := c.searchTracks(ctx, fmt.Sprintf("artist:%s", artist), searchLimit)
		if err != nil {
			c.logger.Warn("artist search failed",
				slog.String("artist", artist),
				slog.String("error", err.Error()))
			continue
		}
		pool = c.collectPlayable(pool, found, limit)
	}

	if len(pool) < limit {
		found, err := c.searchTracks(ctx, "year:2020-2024", searchLimit*2)
		if err != nil && len(pool) == 0 {
			return nil, fmt.Errorf("spotify adapter: discovery searches exhausted: %w", err)
		}
		pool = c.collectPlayable(pool, found, limit)
	}

	if len(pool) == 0 {
		return nil, fmt.Errorf("spotify adapter: %w", domain.ErrNoPlayableContent)
	}
	return pool, nil
}

// ArtistTopTracks returns an artist's top tracks for themed quizzes.
func (c *Client) ArtistTopTracks(ctx context.Context, artistName string) ([]domain.Track, error) {
	artistID, err := c.searchArtistID(ctx, artistName)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: find artist %q: %w", artistName, err)
	}

	reqURL := fmt.Sprintf("%s/artists/%s/top-tracks?market=US", c.baseURL, artistID)
	var body struct {
		Tracks []spotifyTrack `json:"tracks"`
	}
	status, err := c.getJSON(ctx, reqURL, &body)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: top tracks for %q: %w", artistName, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("spotify adapter: top tracks status %d", status)
	}

	return c.collectPlayable(nil, body.Tracks, len(body.Tracks)), nil
}

// TrackTempo fetches the audio-features tempo hint for a track. Absence is
// not an error; callers treat zero as "no hint".
func (c *Client) TrackTempo(ctx context.Context, trackID string) (float64, error) {
	reqURL := fmt.Sprintf("%s/audio-features/%s", c.baseURL, trackID)

	var body audioFeaturesResponse
	status, err := c.getJSON(ctx, reqURL, &body)
	if err != nil {
		return 0, fmt.Errorf("spotify adapter: audio features: %w", err)
	}
	if status != http.StatusOK {
		return 0, nil
	}
	return body.Tempo, nil
}

func (c *Client) searchTracks(ctx context.Context, query string, limit int) ([]spotifyTrack, error) {
	searchURL, err := url.Parse(fmt.Sprintf("%s/search", c.baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid search url: %w", err)
	}

	q := searchURL.Query()
	q.Set("q", query)
	q.Set("type", "track")
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("market", "US")
	searchURL.RawQuery = q.Encode()

	c.logger.Debug("searching", slog.String("url", searchURL.String()))

	var body searchResponse
	status, err := c.getJSON(ctx, searchURL.String(), &body)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("search status %d", status)
	}

	return body.Tracks.Items, nil
}

func (c *Client) searchArtistID(ctx context.Context, artistName string) (string, error) {
	searchURL, err := url.Parse(fmt.Sprintf("%s/search", c.baseURL))
	if err != nil {
		return "", fmt.Errorf("invalid search url: %w", err)
	}

	q := searchURL.Query()
	q.Set("q", artistName)
	q.Set("type", "artist")
	q.Set("limit", "1")
	searchURL.RawQuery = q.Encode()

	var body struct {
		Artists struct {
			Items []spotifyArtist `json:"items"`
		} `json:"artists"`
	}
	status, err := c.getJSON(ctx, searchURL.String(), &body)
	if err != nil {
		return "", fmt.Errorf("artist search failed: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("artist search status %d", status)
	}
	if len(body.Artists.Items) == 0 {
		return "", fmt.Errorf("no artist found with name %q", artistName)
	}

	return body.Artists.Items[0].ID, nil
}

// collectPlayable appends preview-carrying tracks to pool, skipping
// near-duplicate editions of songs already collected, until limit.
func (c *Client) collectPlayable(pool []domain.Track, found []spotifyTrack, limit int) []domain.Track {
	for _, st := range found {
		if len(pool) >= limit {
			break
		}
		if st.PreviewURL == "" {
			continue
		}
		candidate := mapTrackToDomain(st)
		if containsDuplicate(pool, candidate) {
			continue
		}
		pool = append(pool, candidate)
	}
	return pool
}

// pickTwo returns two random elements, fewer when the slice is short.
func pickTwo(values []string) []string {
	if len(values) <= 2 {
		return values
	}
	i := rand.Intn(len(values))
	j := rand.Intn(len(values) - 1)
	if j >= i {
		j++
	}
	return []string{values[i], values[j]}
}
