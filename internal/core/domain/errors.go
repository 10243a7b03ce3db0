package domain

import "errors"

var (
	// ErrNotFound indicates a record is absent from the repository.
	ErrNotFound = errors.New("domain: not found")

	// ErrRoundClosed indicates a guess arrived after the round was scored
	// or timed out. The guess is rejected and never scored.
	ErrRoundClosed = errors.New("domain: round already closed")

	// ErrRoundOpen indicates a new round was requested while another is
	// still in flight. A session has at most one open round.
	ErrRoundOpen = errors.New("domain: a round is already open")

	// ErrNoPlayableContent indicates a candidate track lacks a playable
	// preview. The candidate is skipped; this is never fatal.
	ErrNoPlayableContent = errors.New("domain: no playable preview")

	// ErrPlaybackUnavailable indicates the live playback source exceeded
	// its failure budget and the session cannot continue.
	ErrPlaybackUnavailable = errors.New("domain: playback source unavailable")

	// ErrSessionFinalized indicates the session report was already built.
	ErrSessionFinalized = errors.New("domain: session already finalized")
)
