// Package services holds the core quiz logic: the round state machine,
// the session aggregator, and the orchestrator that ties the collaborator
// ports together.
package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reverb-labs/encore/internal/core/domain"
	"github.com/reverb-labs/encore/internal/core/scoring"
)

// RoundController owns the single in-flight round and its state machine:
//
//	Idle -> Presenting -> AwaitingGuess -> Scored -> (handed off, Idle)
//
// The countdown and the guess submission race to close the round; whichever
// takes the lock first performs the AwaitingGuess -> Scored transition, and
// the loser observes the closed state and becomes a no-op. All access is
// serialized through one mutex, so the contract holds for concurrent web
// callers as well as the sequential CLI.
type RoundController struct {
	mu       sync.Mutex
	cal      scoring.Calibration
	timeout  time.Duration
	session  *Session
	logger   *slog.Logger
	onScored func(domain.Round)

	state domain.RoundState
	round domain.Round
	timer *time.Timer
}

// NewRoundController builds a controller feeding completed rounds into
// session. timeout is the per-round guess window.
func NewRoundController(cal scoring.Calibration, timeout time.Duration, session *Session, logger *slog.Logger) *RoundController {
	return &RoundController{
		cal:     cal,
		timeout: timeout,
		session: session,
		logger:  logger.With(slog.String("component", "rounds")),
		state:   domain.RoundIdle,
	}
}

// OnScored registers a callback invoked after every scored round, outside
// the controller lock. The web adapter uses it to push results.
func (c *RoundController) OnScored(fn func(domain.Round)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onScored = fn
}

// Begin opens a round for track and records the start timestamp. The round
// is Presenting until Await is called; no guess is accepted yet. A second
// Begin while a round is open returns domain.ErrRoundOpen.
func (c *RoundController) Begin(track domain.Track) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.RoundIdle {
		return "", domain.ErrRoundOpen
	}

	c.round = domain.Round{
		ID:        uuid.NewString(),
		Track:     track,
		StartedAt: time.Now(),
	}
	c.state = domain.RoundPresenting

	c.logger.Debug("round opened",
		slog.String("round_id", c.round.ID),
		slog.String("track_id", track.ID))
	return c.round.ID, nil
}

// Await transitions Presenting -> AwaitingGuess and arms the countdown.
func (c *RoundController) Await() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.RoundPresenting {
		return domain.ErrRoundClosed
	}

	c.state = domain.RoundAwaitingGuess
	id := c.round.ID
	c.timer = time.AfterFunc(c.timeout, func() { c.expire(id) })
	return nil
}

// Discard drops a Presenting round that turned out to have no playable
// content. No round is recorded; the controller returns to Idle.
func (c *RoundController) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.RoundPresenting {
		return
	}
	c.state = domain.RoundIdle
	c.round = domain.Round{}
}

// Submit closes the open round with a guess. A guess arriving after the
// countdown expired, or when no round is awaiting one, is rejected with
// domain.ErrRoundClosed and is never scored.
func (c *RoundController) Submit(guessTitle string, guessArtist string) (domain.Round, error) {
	c.mu.Lock()

	if c.state != domain.RoundAwaitingGuess {
		c.mu.Unlock()
		return domain.Round{}, domain.ErrRoundClosed
	}
	if c.timer != nil {
		c.timer.Stop()
	}

	c.round.GuessTitle = guessTitle
	c.round.GuessArtist = guessArtist
	c.round.Elapsed = time.Since(c.round.StartedAt)
	c.round.Score = c.cal.Score(guessTitle, guessArtist, c.round.Track)
	done := c.close()

	c.mu.Unlock()
	c.notify(done)
	return done, nil
}

// Current returns the open round and its state, if any.
func (c *RoundController) Current() (domain.Round, domain.RoundState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.round, c.state
}

// Stop cancels a pending countdown. Used on shutdown.
func (c *RoundController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
}

// expire is the countdown half of the race. The round id guards against a
// stale timer closing a later round.
func (c *RoundController) expire(roundID string) {
	c.mu.Lock()

	if c.state != domain.RoundAwaitingGuess || c.round.ID != roundID {
		c.mu.Unlock()
		return
	}

	c.round.TimedOut = true
	c.round.Elapsed = c.timeout
	c.round.Score = c.cal.Score("", "", c.round.Track)
	done := c.close()

	c.mu.Unlock()

	c.logger.Info("round timed out",
		slog.String("round_id", done.ID),
		slog.String("track_id", done.Track.ID))
	c.notify(done)
}

// close performs the Scored transition and hand-off. Caller holds the lock.
func (c *RoundController) close() domain.Round {
	c.state = domain.RoundScored
	done := c.round

	if err := c.session.Record(done); err != nil {
		c.logger.Warn("dropping round for finalized session", slog.String("round_id", done.ID))
	}

	c.state = domain.RoundIdle
	c.round = domain.Round{}
	c.timer = nil
	return done
}

func (c *RoundController) notify(round domain.Round) {
	c.mu.Lock()
	fn := c.onScored
	c.mu.Unlock()
	if fn != nil {
		fn(round)
	}
}
