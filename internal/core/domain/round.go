package domain

import "time"

// RoundState tracks the lifecycle of a single trivia round.
type RoundState int

const (
	RoundIdle RoundState = iota
	RoundPresenting
	RoundAwaitingGuess
	RoundScored
)

func (s RoundState) String() string {
	switch s {
	case RoundIdle:
		return "idle"
	case RoundPresenting:
		return "presenting"
	case RoundAwaitingGuess:
		return "awaiting_guess"
	case RoundScored:
		return "scored"
	default:
		return "unknown"
	}
}

// Round is one track-guess-score cycle. It is mutated exactly once, when a
// guess is submitted or the countdown expires, and is immutable thereafter.
type Round struct {
	ID          string
	Track       Track
	StartedAt   time.Time
	GuessTitle  string
	GuessArtist string
	TimedOut    bool
	Elapsed     time.Duration
	Score       ScoreResult
}
