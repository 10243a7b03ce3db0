package spotify

import (
	"strings"

	"github.com/reverb-labs/encore/internal/core/domain"
)

// mapTrackToDomain converts a raw Spotify track to a clean domain Track.
func mapTrackToDomain(st spotifyTrack) domain.Track {
	var artistNames []string
	for _, a := range st.Artists {
		artistNames = append(artistNames, a.Name)
	}

	return domain.Track{
		ID:         st.ID,
		Title:      st.Name,
		Artist:     strings.Join(artistNames, ", "),
		Album:      st.Album.Name,
		Year:       releaseYear(st.Album.ReleaseDate),
		Popularity: st.Popularity,
		DurationMs: st.DurationMs,
		PreviewURL: st.PreviewURL,
	}
}

// releaseYear keeps the year prefix of a release date, which Spotify
// returns with day, month, or year precision.
func releaseYear(releaseDate string) string {
	if len(releaseDate) < 4 {
		return ""
	}
	return releaseDate[:4]
}
