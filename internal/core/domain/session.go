package domain

import "time"

// SessionReport aggregates the completed rounds of one quiz session.
// It is built once, at session end, and read-only afterward.
type SessionReport struct {
	TotalScore      int
	Accuracy        float64
	AvgResponseTime time.Duration
	RoundCount      int
}
