package domain

// PlaybackState is a transient snapshot of the live playback source.
// It is compared against the previously observed snapshot to detect a
// track transition; it is never persisted.
type PlaybackState struct {
	TrackID    string
	IsPlaying  bool
	ProgressMs int
	Device     string

	// Track carries the full metadata for the playing item so a change
	// event can open a round without a second lookup.
	Track Track
}
