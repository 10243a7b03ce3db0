package scoring

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Ratio returns a 0-100 similarity between two already-normalized strings,
// scaled from the longest common matching-block alignment:
//
//	ratio = 200 * matched / (len(a) + len(b))
//
// It is symmetric, Ratio(x, x) == 100, and an empty string scores 0
// against anything non-empty. The Scorer performs no normalization;
// callers are expected to pass both inputs through Normalize first.
func Ratio(a string, b string) int {
	if a == b {
		return 100
	}

	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}

	matched := edlib.LCS(a, b)
	return int(math.Round(200 * float64(matched) / float64(la+lb)))
}

// TokenSetRatio applies Ratio to the canonical token-set forms of the two
// strings: unique whitespace-delimited tokens, sorted and rejoined. It is
// tolerant of word reordering and duplicate or extra tokens, e.g. a guess
// missing a leading "The".
func TokenSetRatio(a string, b string) int {
	return Ratio(tokenSet(a), tokenSet(b))
}

func tokenSet(input string) string {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return ""
	}

	seen := make(map[string]struct{}, len(fields))
	unique := make([]string, 0, len(fields))
	for _, field := range fields {
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		unique = append(unique, field)
	}
	sort.Strings(unique)

	return strings.Join(unique, " ")
}
