package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reverb-labs/encore/internal/core/domain"
)

// Session accumulates completed rounds into a final report. It owns the
// round sequence exclusively; the round controller hands a round over only
// once, after scoring.
type Session struct {
	mu        sync.Mutex
	id        string
	startedAt time.Time
	rounds    []domain.Round
	playedIDs []string
	finalized bool
}

// NewSession starts an empty quiz session.
func NewSession() *Session {
	return &Session{
		id:        uuid.NewString(),
		startedAt: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Record appends a completed round. Recording after Finalize returns
// domain.ErrSessionFinalized and leaves the report untouched.
func (s *Session) Record(round domain.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return domain.ErrSessionFinalized
	}

	s.rounds = append(s.rounds, round)
	s.playedIDs = append(s.playedIDs, round.Track.ID)
	return nil
}

// RoundCount returns the number of rounds recorded so far.
func (s *Session) RoundCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rounds)
}

// TotalScore returns the running score.
func (s *Session) TotalScore() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, r := range s.rounds {
		total += r.Score.Total
	}
	return total
}

// SeenRecently reports whether trackID was played within the last n rounds.
// Live mode uses it to avoid re-quizzing a song the player just replayed.
func (s *Session) SeenRecently(trackID string, n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := len(s.playedIDs) - n
	if start < 0 {
		start = 0
	}
	for _, id := range s.playedIDs[start:] {
		if id == trackID {
			return true
		}
	}
	return false
}

// Finalize builds the session report. It is callable once; later calls
// return domain.ErrSessionFinalized. An empty session yields an all-zero
// report, not an error.
func (s *Session) Finalize() (domain.SessionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return domain.SessionReport{}, domain.ErrSessionFinalized
	}
	s.finalized = true

	report := domain.SessionReport{RoundCount: len(s.rounds)}
	if len(s.rounds) == 0 {
		return report, nil
	}

	scored := 0
	var elapsed time.Duration
	for _, r := range s.rounds {
		report.TotalScore += r.Score.Total
		elapsed += r.Elapsed
		if r.Score.Total > 0 {
			scored++
		}
	}

	report.Accuracy = float64(scored) / float64(len(s.rounds))
	report.AvgResponseTime = elapsed / time.Duration(len(s.rounds))
	return report, nil
}
