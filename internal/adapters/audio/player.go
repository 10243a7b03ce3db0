// Package audio plays track preview excerpts by streaming and decoding
// the MP3 preview at playback pace. There is no sound device in scope;
// pacing the decode gives the quiz its listening window.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/hajimehoshi/go-mp3"

	"github.com/reverb-labs/encore/internal/core/domain"
	"github.com/reverb-labs/encore/internal/core/ports"
)

// bytesPerSample is the decoder's output width: 16-bit stereo.
const bytesPerSample = 4

// Player fetches and decodes preview MP3s.
type Player struct {
	httpClient *http.Client
	logger     *slog.Logger
	prefetch   *Prefetcher
}

var _ ports.AudioPlayer = (*Player)(nil)

func NewPlayer(httpClient *http.Client, logger *slog.Logger) *Player {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Player{
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "audio")),
	}
}

// UsePrefetcher makes Play consult the warm cache before hitting the CDN.
func (p *Player) UsePrefetcher(pf *Prefetcher) {
	p.prefetch = pf
}

// Play streams the track's preview for up to clip. It returns
// domain.ErrNoPlayableContent when the track has no preview or the CDN
// refuses to serve it, so the caller can discard the round.
func (p *Player) Play(ctx context.Context, track domain.Track, clip time.Duration) error {
	if !track.PreviewAvailable() {
		return fmt.Errorf("audio: track %s: %w", track.ID, domain.ErrNoPlayableContent)
	}

	if p.prefetch != nil {
		if data, ok := p.prefetch.Take(track.ID); ok {
			decoder, err := mp3.NewDecoder(bytes.NewReader(data))
			if err == nil {
				p.logger.Debug("playing prefetched preview",
					slog.String("track_id", track.ID),
					slog.Int("bytes", len(data)))
				return paceDecode(ctx, decoder, decoder.SampleRate(), clip)
			}
			p.logger.Warn("prefetched preview undecodable, refetching",
				slog.String("track_id", track.ID))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.PreviewURL, nil)
	if err != nil {
		return fmt.Errorf("audio: build preview request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("audio: fetch preview: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("audio: preview gone (status %d): %w", resp.StatusCode, domain.ErrNoPlayableContent)
	default:
		return fmt.Errorf("audio: preview fetch status %d", resp.StatusCode)
	}

	decoder, err := mp3.NewDecoder(resp.Body)
	if err != nil {
		return fmt.Errorf("audio: decode preview: %w", domain.ErrNoPlayableContent)
	}

	p.logger.Debug("playing preview",
		slog.String("track_id", track.ID),
		slog.Int("sample_rate", decoder.SampleRate()),
		slog.Duration("clip", clip))

	return paceDecode(ctx, decoder, decoder.SampleRate(), clip)
}

// paceDecode reads decoded PCM at real-time speed until clip elapses, the
// stream ends, or ctx cancels. Reads happen in ~100ms slices so
// cancellation stays responsive.
func paceDecode(ctx context.Context, r io.Reader, sampleRate int, clip time.Duration) error {
	if sampleRate <= 0 {
		return errors.New("audio: invalid sample rate")
	}

	bytesPerSecond := sampleRate * bytesPerSample
	sliceBytes := bytesPerSecond / 10
	buf := make([]byte, sliceBytes)

	deadline := time.Now().Add(clip)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return fmt.Errorf("audio: read preview: %w", err)
		}

		if clip > 0 && !time.Now().Before(deadline) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Energy estimates the loudness of a preview on a 0..1 scale from sample
// RMS. Used as an optional hint alongside tempo and popularity.
func Energy(ctx context.Context, httpClient *http.Client, previewURL string) (float64, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if previewURL == "" {
		return 0, domain.ErrNoPlayableContent
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, previewURL, nil)
	if err != nil {
		return 0, fmt.Errorf("audio: build energy request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("audio: fetch preview: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("audio: preview fetch status %d", resp.StatusCode)
	}

	decoder, err := mp3.NewDecoder(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("audio: decode preview: %w", err)
	}

	buf := make([]byte, 4096)
	var sumSquares float64
	var count float64

	for {
		n, err := decoder.Read(buf)
		if n > 0 {
			for i := 0; i+1 < n; i += 2 {
				sample := int16(buf[i]) | int16(buf[i+1])<<8
				val := float64(sample)
				sumSquares += val * val
				count++
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, fmt.Errorf("audio: read preview: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}

	if count == 0 {
		return 0, errors.New("audio: preview contains no samples")
	}

	energy := math.Sqrt(sumSquares/count) / 32768.0
	return math.Min(math.Max(energy, 0), 1), nil
}
