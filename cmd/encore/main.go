// Encore is a music trivia game for the terminal. Pool mode quizzes you on
// preview clips; live mode rides along with whatever you are playing.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/reverb-labs/encore/internal/adapters/audio"
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
	mode := flag.String("mode", "pool", "game mode: pool or live")
	roundOverride := flag.Int("rounds", 0, "override configured round count")
	artist := flag.String("artist", "", "pool mode: quiz on one artist's top tracks")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *roundOverride > 0 {
		cfg.Quiz.Rounds = *roundOverride
	}
	logger := cfg.NewLogger()

	if err := run(cfg, *mode, *artist, logger); err != nil {
		logger.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, mode string, artist string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, err := musicHTTPClient(ctx, cfg)
	if err != nil {
		return err
	}

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

	// "cache" plays fully offline from the sqlite pool; the other sources
	// hit the catalog.
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

	rounds.OnScored(func(round domain.Round) {
		if round.TimedOut {
			fmt.Printf("\n⏰ Time's up! That was %q by %s.\n", round.Track.Title, round.Track.Artist)
			fmt.Println("Press enter to continue.")
		}
	})

	quiz := services.NewQuiz(
		source,
		player,
		repo,
		rounds,
		sess,
		time.Duration(cfg.Quiz.PreviewClipSeconds)*time.Second,
		logger,
	)

	game := &game{
		quiz:        quiz,
		spotify:     spotifyClient,
		prefetcher:  prefetcher,
		calibration: calibration,
		stdin:       bufio.NewScanner(os.Stdin),
		rounds:      cfg.Quiz.Rounds,
		artist:      artist,
	}

	switch mode {
	case "pool":
		err = game.playPool(ctx)
	case "live":
		w := watcher.New(
			spotifyClient,
			time.Duration(cfg.Live.PollIntervalSeconds)*time.Second,
			cfg.Live.MaxPollFailures,
			logger,
		)
		err = game.playLive(ctx, w)
	default:
		return fmt.Errorf("unknown mode %q (want pool or live)", mode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	report, ferr := quiz.Finish()
	if ferr != nil {
		return ferr
	}
	printReport(report, game.maxScore())
	return nil
}

type game struct {
	quiz        *services.Quiz
	spotify     *spotify.Client
	prefetcher  *audio.Prefetcher
	calibration scoring.Calibration
	stdin       *bufio.Scanner
	rounds      int
	artist      string
}

// maxScore is what a perfect session would have earned.
func (g *game) maxScore() int {
	perRound := g.calibration.TitleCeiling() + g.calibration.ArtistCeiling()
	return g.quiz.Session().RoundCount() * perRound
}

func (g *game) playPool(ctx context.Context) error {
	fmt.Println("🎵 Loading your quiz pool...")

	var pool []domain.Track
	var err error
	if g.artist != "" {
		pool, err = g.spotify.ArtistTopTracks(ctx, g.artist)
	} else {
		pool, err = g.quiz.LoadPool(ctx, g.rounds*3)
	}
	if err != nil {
		return err
	}
	if len(pool) == 0 {
		return domain.ErrNoPlayableContent
	}

	for i := 1; i < len(pool); i++ {
		g.prefetcher.Submit(audio.PrefetchJob{TrackID: pool[i].ID, PreviewURL: pool[i].PreviewURL})
	}

	played := 0
	for _, track := range pool {
		if played >= g.rounds {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Printf("\n─── Round %d of %d ───\n", played+1, g.rounds)
		g.enrichHints(ctx, &track)
		printHints(track)
		fmt.Println("🔊 Listen closely...")

		if err := g.quiz.OpenRound(ctx, track); err != nil {
			if errors.Is(err, domain.ErrNoPlayableContent) {
				fmt.Println("That one wouldn't play. Skipping it.")
				continue
			}
			return err
		}

		if err := g.promptGuess(ctx, track); err != nil {
			return err
		}
		played++
	}

	if played == 0 {
		return domain.ErrNoPlayableContent
	}
	return nil
}

func (g *game) playLive(ctx context.Context, w *watcher.Watcher) error {
	fmt.Println("📡 Watching your live playback. Play something!")

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	watcherErr := make(chan error, 1)
	go func() {
		watcherErr <- w.Run(watchCtx)
	}()

	played := 0
	for change := range w.Events() {
		if played >= g.rounds {
			break
		}
		if g.quiz.Session().SeenRecently(change.Track.ID, 10) {
			continue
		}

		fmt.Printf("\n─── Round %d of %d ───\n", played+1, g.rounds)
		if change.State.Device != "" {
			fmt.Printf("Now playing on %s.\n", change.State.Device)
		}
		printHints(change.Track)

		if err := g.quiz.OpenLiveRound(ctx, change.Track); err != nil {
			if errors.Is(err, domain.ErrRoundOpen) {
				continue
			}
			return err
		}

		if err := g.promptGuess(ctx, change.Track); err != nil {
			return err
		}
		played++
	}

	cancel()
	if err := <-watcherErr; err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, domain.ErrPlaybackUnavailable) {
			fmt.Println("\nLost contact with your player. Wrapping up.")
			return nil
		}
		return err
	}
	return nil
}

// promptGuess collects title and artist, with "!replay" to hear the clip
// again. The round clock keeps running while the player types.
func (g *game) promptGuess(ctx context.Context, track domain.Track) error {
	for {
		title, ok := g.prompt("Song title? ")
		if !ok {
			return context.Canceled
		}
		if strings.EqualFold(strings.TrimSpace(title), "!replay") {
			if err := g.quiz.Replay(ctx, track); err != nil {
				fmt.Println("Replay didn't work, sorry.")
			}
			continue
		}

		artist, ok := g.prompt("Artist? ")
		if !ok {
			return context.Canceled
		}

		round, err := g.quiz.Guess(title, artist)
		if err != nil {
			if errors.Is(err, domain.ErrRoundClosed) {
				// The countdown beat them to it; the timeout callback
				// already revealed the answer.
				return nil
			}
			return err
		}

		printScore(round)
		return nil
	}
}

// enrichHints backfills the optional tempo and energy hints. Both are nice
// to have; failures are silent.
func (g *game) enrichHints(ctx context.Context, track *domain.Track) {
	if track.Tempo == 0 {
		if tempo, err := g.spotify.TrackTempo(ctx, track.ID); err == nil {
			track.Tempo = tempo
		}
	}
	if track.Tempo == 0 && track.PreviewAvailable() {
		hintCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if energy, err := audio.Energy(hintCtx, nil, track.PreviewURL); err == nil {
			fmt.Printf("🔥 Energy: %.0f%%\n", energy*100)
		}
	}
}

func (g *game) prompt(label string) (string, bool) {
	fmt.Print(label)
	if !g.stdin.Scan() {
		return "", false
	}
	return g.stdin.Text(), true
}

func printHints(track domain.Track) {
	if track.Album != "" {
		fmt.Printf("💿 Album: %s\n", track.Album)
	}
	if track.Year != "" {
		fmt.Printf("📅 Year: %s\n", track.Year)
	}
	if track.Popularity > 0 {
		fmt.Printf("⭐ Popularity: %d/100\n", track.Popularity)
	}
	if track.Tempo > 0 {
		fmt.Printf("🥁 Tempo: %.0f BPM\n", track.Tempo)
	}
}

func printScore(round domain.Round) {
	fmt.Printf("\nIt was %q by %s.\n", round.Track.Title, round.Track.Artist)
	fmt.Printf("Title:  %d pts (similarity %d%%)\n", round.Score.TitlePoints, round.Score.TitleRatio)
	fmt.Printf("Artist: %d pts (similarity %d%%)\n", round.Score.ArtistPoints, round.Score.ArtistRatio)
	fmt.Printf("Round total: %d in %.1fs\n", round.Score.Total, round.Elapsed.Seconds())
}

func printReport(report domain.SessionReport, maxScore int) {
	fmt.Println("\n══════ Final Results ══════")
	fmt.Printf("Rounds played: %d\n", report.RoundCount)
	fmt.Printf("Total score:   %d\n", report.TotalScore)
	fmt.Printf("Accuracy:      %.0f%%\n", report.Accuracy*100)
	if report.RoundCount > 0 {
		fmt.Printf("Avg response:  %.1fs\n", report.AvgResponseTime.Seconds())
	}

	if maxScore <= 0 {
		return
	}
	pct := report.TotalScore * 100 / maxScore
	switch {
	case pct >= 90:
		fmt.Println("🏆 Encore! Encore! You know your music.")
	case pct >= 70:
		fmt.Println("🎸 Solid set. A few deep cuts got away.")
	case pct >= 50:
		fmt.Println("🎧 Not bad. Keep those playlists spinning.")
	default:
		fmt.Println("📻 Rough gig. Everyone starts somewhere.")
	}
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
