// Package scoring converts two noisy, user-typed strings into a bounded,
// deterministic point value. Everything in here is pure and total: invalid
// or empty input degrades to a defined score instead of failing.
package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Qualifier tokens that carry no identity: "Song (Remastered 2011)" and
// "Song" are the same answer.
var noiseTokens = map[string]struct{}{
	"acoustic":   {},
	"clean":      {},
	"deluxe":     {},
	"edit":       {},
	"edition":    {},
	"explicit":   {},
	"feat":       {},
	"featuring":  {},
	"ft":         {},
	"live":       {},
	"mix":        {},
	"mono":       {},
	"radio":      {},
	"remaster":   {},
	"remastered": {},
	"remix":      {},
	"stereo":     {},
	"version":    {},
}

var featMarkers = []string{" feat. ", " feat ", " ft. ", " ft ", " featuring "}

// Normalize canonicalizes a raw title or artist string for comparison.
// The step order is fixed for reproducibility: trim, fold diacritics,
// lowercase, drop bracketed segments, cut a trailing feat clause, strip
// punctuation to spaces, drop noise qualifier tokens, collapse whitespace.
// Normalize never fails and is idempotent.
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	lowered := strings.ToLower(strings.TrimSpace(foldMarks(raw)))
	stripped := stripBracketedSegments(lowered)
	stripped = cutFeatClause(stripped)

	tokens := strings.Fields(cleanSeparators(stripped))
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, drop := noiseTokens[token]; drop {
			continue
		}
		kept = append(kept, token)
	}

	if len(kept) == 0 {
		// Unparseable input degrades to the trimmed-lowercase form.
		return strings.Join(strings.Fields(cleanSeparators(lowered)), " ")
	}

	return strings.Join(kept, " ")
}

// foldMarks decomposes accented runes and drops the combining marks, so
// "Beyoncé" compares equal to "beyonce".
func foldMarks(input string) string {
	decomposed := norm.NFKD.String(input)
	var out strings.Builder
	out.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.IsMark(r) {
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

func stripBracketedSegments(input string) string {
	var out strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}
	return out.String()
}

// cutFeatClause drops a trailing featured-artist clause. Only the first
// marker counts; everything after it is clutter for answer comparison.
func cutFeatClause(input string) string {
	cut := len(input)
	for _, marker := range featMarkers {
		if idx := strings.Index(input, marker); idx != -1 && idx < cut {
			cut = idx
		}
	}
	return input[:cut]
}

func cleanSeparators(input string) string {
	var out strings.Builder
	lastSpace := false
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			out.WriteRune(' ')
			lastSpace = true
		}
	}
	return out.String()
}
