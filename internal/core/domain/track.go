package domain

// Track is an immutable descriptor for a quiz candidate, sourced from the
// music service. Album, Year, Popularity and Tempo are optional hint fields.
type Track struct {
	ID         string
	Title      string
	Artist     string
	Album      string
	Year       string
	Popularity int
	Tempo      float64
	DurationMs int
	PreviewURL string
}

// PreviewAvailable reports whether the service supplied a playable excerpt.
func (t Track) PreviewAvailable() bool {
	return t.PreviewURL != ""
}
