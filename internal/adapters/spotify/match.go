package spotify

import (
	"fmt"

	"github.com/agnivade/levenshtein"

	"github.com/reverb-labs/encore/internal/core/domain"
	"github.com/reverb-labs/encore/internal/core/scoring"
)

// editionDistance is how far apart two normalized "artist|title" keys can
// be and still count as the same song. Catches remasters, single edits and
// re-releases that differ by a character or two after qualifier stripping.
const editionDistance = 3

func editionKey(t domain.Track) string {
	return fmt.Sprintf("%s|%s", scoring.Normalize(t.Artist), scoring.Normalize(t.Title))
}

// containsDuplicate reports whether candidate is a near-duplicate edition
// of a track already in pool.
func containsDuplicate(pool []domain.Track, candidate domain.Track) bool {
	key := editionKey(candidate)
	for _, existing := range pool {
		if existing.ID == candidate.ID {
			return true
		}
		if levenshtein.ComputeDistance(editionKey(existing), key) <= editionDistance {
			return true
		}
	}
	return false
}
