package scoring

import (
	"fmt"

	"github.com/reverb-labs/encore/internal/core/domain"
)

// tier awards points when the similarity ratio is at or above minRatio.
// Tables are ordered highest first and looked up by first match, so the
// threshold literals live in exactly one place per calibration.
type tier struct {
	minRatio int
	points   int
}

// Calibration fixes the point ceilings and tier thresholds for a quiz.
// Two calibrations exist; the choice is configuration, not code.
type Calibration struct {
	name        string
	titleTiers  []tier
	artistTiers []tier
}

// Classic splits a perfect round 60/40 between title and artist.
var Classic = Calibration{
	name: "classic",
	titleTiers: []tier{
		{minRatio: 90, points: 60},
		{minRatio: 70, points: 40},
		{minRatio: 50, points: 20},
	},
	artistTiers: []tier{
		{minRatio: 90, points: 40},
		{minRatio: 70, points: 25},
		{minRatio: 50, points: 10},
	},
}

// TitleHeavy splits a perfect round 70/30, weighting the harder guess.
var TitleHeavy = Calibration{
	name: "title_heavy",
	titleTiers: []tier{
		{minRatio: 90, points: 70},
		{minRatio: 70, points: 50},
		{minRatio: 50, points: 30},
	},
	artistTiers: []tier{
		{minRatio: 90, points: 30},
		{minRatio: 70, points: 20},
		{minRatio: 50, points: 10},
	},
}

// CalibrationByName resolves a configured calibration name.
func CalibrationByName(name string) (Calibration, error) {
	switch name {
	case "", Classic.name:
		return Classic, nil
	case TitleHeavy.name:
		return TitleHeavy, nil
	default:
		return Calibration{}, fmt.Errorf("scoring: unknown calibration %q", name)
	}
}

func (c Calibration) Name() string { return c.name }

// TitleCeiling is the maximum points a title guess can earn.
func (c Calibration) TitleCeiling() int { return c.titleTiers[0].points }

// ArtistCeiling is the maximum points an artist guess can earn.
func (c Calibration) ArtistCeiling() int { return c.artistTiers[0].points }

// MapTitle maps a title similarity ratio into its point tier.
func (c Calibration) MapTitle(ratio int) int {
	return mapTier(c.titleTiers, ratio)
}

// MapArtist maps an artist similarity ratio into its point tier.
func (c Calibration) MapArtist(ratio int) int {
	return mapTier(c.artistTiers, ratio)
}

func mapTier(tiers []tier, ratio int) int {
	for _, t := range tiers {
		if ratio >= t.minRatio {
			return t.points
		}
	}
	return 0
}

// Score normalizes a raw guess against a track's title and artist and maps
// the similarity ratios into points. The title ratio takes the better of
// the sequence and token-set forms, since titles attract reordering and
// qualifier clutter; artist names are short enough that the sequence ratio
// alone is the fairer measure.
func (c Calibration) Score(guessTitle string, guessArtist string, track domain.Track) domain.ScoreResult {
	guessedTitle := Normalize(guessTitle)
	guessedArtist := Normalize(guessArtist)
	wantTitle := Normalize(track.Title)
	wantArtist := Normalize(track.Artist)

	titleRatio := 0
	if guessedTitle != "" {
		titleRatio = Ratio(guessedTitle, wantTitle)
		if ts := TokenSetRatio(guessedTitle, wantTitle); ts > titleRatio {
			titleRatio = ts
		}
	}

	artistRatio := 0
	if guessedArtist != "" {
		artistRatio = Ratio(guessedArtist, wantArtist)
	}

	titlePoints := c.MapTitle(titleRatio)
	artistPoints := c.MapArtist(artistRatio)

	return domain.ScoreResult{
		TitlePoints:  titlePoints,
		ArtistPoints: artistPoints,
		Total:        titlePoints + artistPoints,
		TitleRatio:   titleRatio,
		ArtistRatio:  artistRatio,
	}
}
