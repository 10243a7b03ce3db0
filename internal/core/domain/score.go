package domain

// ScoreResult holds the points awarded for one guess. Total is always the
// sum of the two components, and each component is drawn from the fixed
// tier set of the active calibration.
type ScoreResult struct {
	TitlePoints  int
	ArtistPoints int
	Total        int

	// Raw similarity ratios, kept for presentation-layer feedback.
	TitleRatio  int
	ArtistRatio int
}
