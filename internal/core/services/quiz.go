package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reverb-labs/encore/internal/core/domain"
	"github.com/reverb-labs/encore/internal/core/ports"
)

// Quiz orchestrates one trivia session: it loads candidate tracks, opens
// rounds through the controller, plays previews, and produces the final
// report. The presentation layer (CLI prompts or web handlers) drives it.
type Quiz struct {
	source ports.TrackSource
	player ports.AudioPlayer
	repo   ports.TrackRepository // optional
	rounds *RoundController
	sess   *Session
	clip   time.Duration
	logger *slog.Logger
}

// NewQuiz wires a quiz session. repo may be nil when no local cache is
// configured; everything else is required.
func NewQuiz(source ports.TrackSource, player ports.AudioPlayer, repo ports.TrackRepository, rounds *RoundController, sess *Session, clip time.Duration, logger *slog.Logger) *Quiz {
	return &Quiz{
		source: source,
		player: player,
		repo:   repo,
		rounds: rounds,
		sess:   sess,
		clip:   clip,
		logger: logger.With(slog.String("component", "quiz")),
	}
}

// LoadPool fetches up to limit playable candidates, refreshes the local
// cache, and drops tracks played in recent sessions.
func (q *Quiz) LoadPool(ctx context.Context, limit int) ([]domain.Track, error) {
	tracks, err := q.source.QuizTracks(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("quiz: load pool: %w", err)
	}

	playable := make([]domain.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.PreviewAvailable() {
			playable = append(playable, t)
		}
	}

	if q.repo != nil {
		if err := q.repo.SaveTracks(ctx, playable); err != nil {
			q.logger.Warn("failed to cache pool", slog.String("error", err.Error()))
		}
		playable = q.dropRecentlyPlayed(ctx, playable)
	}

	if len(playable) == 0 {
		return nil, fmt.Errorf("quiz: load pool: %w", domain.ErrNoPlayableContent)
	}
	return playable, nil
}

func (q *Quiz) dropRecentlyPlayed(ctx context.Context, tracks []domain.Track) []domain.Track {
	recent, err := q.repo.RecentlyPlayed(ctx, 25)
	if err != nil {
		q.logger.Warn("failed to load play history", slog.String("error", err.Error()))
		return tracks
	}
	seen := make(map[string]struct{}, len(recent))
	for _, id := range recent {
		seen[id] = struct{}{}
	}

	kept := tracks[:0]
	for _, t := range tracks {
		if _, played := seen[t.ID]; played {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		// Everything was played recently; repeating beats an empty quiz.
		return tracks
	}
	return kept
}

// OpenRound presents a pool-mode candidate: it opens a round, plays the
// preview clip, and starts the guess countdown. A candidate without a
// playable preview is skipped without creating a round; the caller moves
// on to the next candidate, bounded by the pool size.
func (q *Quiz) OpenRound(ctx context.Context, track domain.Track) error {
	if !track.PreviewAvailable() {
		return fmt.Errorf("quiz: track %s: %w", track.ID, domain.ErrNoPlayableContent)
	}

	if _, err := q.rounds.Begin(track); err != nil {
		return err
	}

	if err := q.player.Play(ctx, track, q.clip); err != nil {
		if errors.Is(err, domain.ErrNoPlayableContent) {
			q.rounds.Discard()
			return fmt.Errorf("quiz: track %s: %w", track.ID, err)
		}
		// Playback trouble is not the player's fault; keep the round
		// going and let them guess from what they heard.
		q.logger.Warn("preview playback failed",
			slog.String("track_id", track.ID),
			slog.String("error", err.Error()))
	}

	if err := q.rounds.Await(); err != nil {
		return err
	}
	q.markPlayed(ctx, track.ID)
	return nil
}

// OpenLiveRound opens a round for a track the user is already hearing, so
// the countdown starts immediately.
func (q *Quiz) OpenLiveRound(ctx context.Context, track domain.Track) error {
	if _, err := q.rounds.Begin(track); err != nil {
		return err
	}
	if err := q.rounds.Await(); err != nil {
		return err
	}
	q.markPlayed(ctx, track.ID)
	return nil
}

// Guess submits the player's answer for the open round.
func (q *Quiz) Guess(guessTitle string, guessArtist string) (domain.Round, error) {
	return q.rounds.Submit(guessTitle, guessArtist)
}

// Replay plays the preview again. The round clock keeps running.
func (q *Quiz) Replay(ctx context.Context, track domain.Track) error {
	return q.player.Play(ctx, track, q.clip)
}

// Session exposes the running session for progress displays.
func (q *Quiz) Session() *Session {
	return q.sess
}

// Rounds exposes the controller for state queries and scoring callbacks.
func (q *Quiz) Rounds() *RoundController {
	return q.rounds
}

// Finish stops any pending countdown and builds the final report.
func (q *Quiz) Finish() (domain.SessionReport, error) {
	q.rounds.Stop()
	return q.sess.Finalize()
}

func (q *Quiz) markPlayed(ctx context.Context, trackID string) {
	if q.repo == nil {
		return
	}
	if err := q.repo.MarkPlayed(ctx, trackID, time.Now()); err != nil {
		q.logger.Warn("failed to record play",
			slog.String("track_id", trackID),
			slog.String("error", err.Error()))
	}
}
