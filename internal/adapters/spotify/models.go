package spotify

// Wire types mirroring the Spotify Web API response shapes.

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	DurationMs int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	PreviewURL string          `json:"preview_url"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

type searchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

type topTracksResponse struct {
	Items []spotifyTrack `json:"items"`
}

type currentlyPlayingResponse struct {
	IsPlaying  bool          `json:"is_playing"`
	ProgressMs int           `json:"progress_ms"`
	Item       *spotifyTrack `json:"item"`
	Device     struct {
		Name string `json:"name"`
	} `json:"device"`
	CurrentlyPlayingType string `json:"currently_playing_type"`
}

type audioFeaturesResponse struct {
	ID    string  `json:"id"`
	Tempo float64 `json:"tempo"`
}
