// Encore's web variant: the quiz driven over HTTP, with live playback
// events streamed to the browser.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/reverb-labs/encore/internal/adapters/audio"
	"github.com/reverb-labs/encore/internal/adapters/rest"
	"github.com/reverb-labs/encore/internal/adapters/spotify"
	"github.com/reverb-labs/encore/internal/adapters/sqlite"
	"github.com/reverb-labs/encore/internal/config"
	"github.com/reverb-labs/encore/internal/core/domain"
	"github.com/reverb-labs/encore/internal/core/ports"
	"github.com/reverb-labs/encore/internal/core/scoring"
	"github.com/reverb-labs/encore/internal/core/services"
	"github.com/reverb-labs/encore/internal/watcher"
)

func main() {
	configPath := flag.String("config", "encore.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, err := musicHTTPClient(ctx, cfg)
	if err != nil {
		return err
	}

	// Driven adapters.
	var repo ports.TrackRepository
	if cfg.Database.Path != "" {
		dbAdapter, err := sqlite.NewAdapter(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer dbAdapter.Close()
		repo = dbAdapter
	}

	spotifyClient := spotify.NewClient(httpClient, cfg.Spotify.BaseURL, logger)

	var source ports.TrackSource = spotifyClient
	if cfg.Quiz.Source == "cache" {
		source = repo
	} else if err := spotifyClient.SetPoolStrategy(cfg.Quiz.Source); err != nil {
		return err
	}

	prefetcher := audio.NewPrefetcher(nil, logger, 16)
	prefetcher.Start(2)
	defer prefetcher.Stop()

	player := audio.NewPlayer(nil, logger)
	player.UsePrefetcher(prefetcher)

	// Core.
	calibration, err := scoring.CalibrationByName(cfg.Quiz.Calibration)
	if err != nil {
		return err
	}

	sess := services.NewSession()
	rounds := services.NewRoundController(
		calibration,
		time.Duration(cfg.Quiz.RoundTimeoutSeconds)*time.Second,
		sess,
		logger,
	)
	defer rounds.Stop()

	quiz := services.NewQuiz(
		source,
		player,
		repo,
		rounds,
		sess,
		time.Duration(cfg.Quiz.PreviewClipSeconds)*time.Second,
		logger,
	)

	// Event fan-out: scored rounds and live track changes reach the
	// browser over SSE.
	hub := rest.NewHub(logger)
	rounds.OnScored(func(round domain.Round) {
		hub.Publish("round_scored", map[string]any{
			"round_id":  round.ID,
			"title":     round.Track.Title,
			"artist":    round.Track.Artist,
			"total":     round.Score.Total,
			"timed_out": round.TimedOut,
		})
	})

	w := watcher.New(
		spotifyClient,
		time.Duration(cfg.Live.PollIntervalSeconds)*time.Second,
		cfg.Live.MaxPollFailures,
		logger,
	)
	watcherErr := make(chan error, 1)
	go func() {
		watcherErr <- w.Run(ctx)
	}()
	go func() {
		for change := range w.Events() {
			prefetcher.Submit(audio.PrefetchJob{
				TrackID:    change.Track.ID,
				PreviewURL: change.Track.PreviewURL,
			})
			hub.Publish("track_changed", map[string]any{
				"track_id": change.Track.ID,
				"album":    change.Track.Album,
				"year":     change.Track.Year,
				"device":   change.State.Device,
			})
		}
	}()

	handler := rest.NewHandler(quiz, spotifyClient, spotifyClient, hub, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	logger.Info("server listening", slog.String("addr", cfg.Server.Addr))

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case err := <-watcherErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("live watcher stopped", slog.String("error", err.Error()))
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// musicHTTPClient builds a token-bearing HTTP client. A configured access
// token wins; otherwise the client-credentials flow is used.
func musicHTTPClient(ctx context.Context, cfg *config.Config) (*http.Client, error) {
	if cfg.Spotify.AccessToken != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Spotify.AccessToken})
		return oauth2.NewClient(ctx, src), nil
	}
	if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" {
		return nil, fmt.Errorf("spotify credentials are required (client id/secret or access token)")
	}
	creds := &clientcredentials.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		TokenURL:     "https://accounts.spotify.com/api/token",
	}
	return creds.Client(ctx), nil
}
