package audio

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// maxPrefetchBytes caps a cached preview. Thirty-second MP3 previews run
// well under a megabyte; anything larger is not a preview.
const maxPrefetchBytes = 4 << 20

// PrefetchJob asks the pool to warm a track's preview ahead of its round.
type PrefetchJob struct {
	TrackID    string
	PreviewURL string
}

// Prefetcher downloads upcoming previews in the background so round
// openings do not stall on the CDN.
type Prefetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
	jobs       chan PrefetchJob
	cache      sync.Map // trackID -> []byte
	wg         sync.WaitGroup
}

func NewPrefetcher(httpClient *http.Client, logger *slog.Logger, queueSize int) *Prefetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Prefetcher{
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "prefetch")),
		jobs:       make(chan PrefetchJob, queueSize),
	}
}

// Start launches the worker goroutines.
func (p *Prefetcher) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.fetch(job)
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight fetches.
func (p *Prefetcher) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

// Submit queues a job without blocking. A full queue drops the job; the
// player will fetch the preview on demand instead.
func (p *Prefetcher) Submit(job PrefetchJob) {
	select {
	case p.jobs <- job:
	default:
		p.logger.Warn("queue full, dropping prefetch", slog.String("track_id", job.TrackID))
	}
}

// Take removes and returns a cached preview, if one was fetched.
func (p *Prefetcher) Take(trackID string) ([]byte, bool) {
	value, ok := p.cache.LoadAndDelete(trackID)
	if !ok {
		return nil, false
	}
	return value.([]byte), true
}

func (p *Prefetcher) fetch(job PrefetchJob) {
	if job.PreviewURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.PreviewURL, nil)
	if err != nil {
		p.logger.Warn("prefetch request build failed",
			slog.String("track_id", job.TrackID),
			slog.String("error", err.Error()))
		return
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("prefetch failed",
			slog.String("track_id", job.TrackID),
			slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("prefetch rejected",
			slog.String("track_id", job.TrackID),
			slog.Int("status", resp.StatusCode))
		return
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPrefetchBytes))
	if err != nil {
		p.logger.Warn("prefetch read failed",
			slog.String("track_id", job.TrackID),
			slog.String("error", err.Error()))
		return
	}

	p.cache.Store(job.TrackID, data)
	p.logger.Debug("preview cached",
		slog.String("track_id", job.TrackID),
		slog.Int("bytes", len(data)))
}
