// Package spotify adapts the Spotify Web API to the core's track and
// playback ports. Token acquisition lives with the caller: the injected
// http.Client is expected to carry OAuth credentials (oauth2 transport).
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/reverb-labs/encore/internal/core/ports"
)

const defaultBaseURL = "https://api.spotify.com/v1"

// Client is an HTTP client for the Spotify adapter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger

	poolStrategy string

	maxRetries  int
	baseBackoff time.Duration
}

// compile-time interface assertions
var (
	_ ports.TrackSource        = (*Client)(nil)
	_ ports.PlaybackSource     = (*Client)(nil)
	_ ports.PlaybackController = (*Client)(nil)
)

// NewClient constructs a Spotify client. baseURL may be empty for the real
// API; tests point it at a local server.
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(baseURL, "/"),
		limiter:      rate.NewLimiter(10, 2),
		logger:       logger.With(slog.String("component", "spotify")),
		poolStrategy: PoolDiscover,
		maxRetries:   defaultMaxRetries,
		baseBackoff:  defaultBackoff,
	}
}

// SetPoolStrategy selects where QuizTracks draws candidates from: the
// user's top tracks or a catalog discovery search.
func (c *Client) SetPoolStrategy(strategy string) error {
	switch strategy {
	case PoolTop, PoolDiscover:
		c.poolStrategy = strategy
		return nil
	default:
		return fmt.Errorf("spotify adapter: unknown pool strategy %q", strategy)
	}
}

// getJSON performs a rate-limited GET with the retry policy and decodes
// the response body into out. A nil out skips decoding.
func (c *Client) getJSON(ctx context.Context, url string, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("spotify adapter: rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("spotify adapter: build request: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("spotify adapter: decode response: %w", err)
	}
	return resp.StatusCode, nil
}
