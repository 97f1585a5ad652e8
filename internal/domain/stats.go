package domain

// ArtistStat is one row of the top-artists ranking for a month.
type ArtistStat struct {
	ArtistName      string `json:"artist_name"`
	TotalDurationMs int64  `json:"total_duration_ms"`
	PlayCount       int    `json:"play_count"`
}

// SongStat is one row of the top-songs ranking for a month. SongKey is the
// identity used for deterministic tie-breaking and distinct counting.
type SongStat struct {
	SongKey         string `json:"song_key"`
	SongTitle       string `json:"song_title"`
	ArtistName      string `json:"artist_name"`
	TotalDurationMs int64  `json:"total_duration_ms"`
	PlayCount       int    `json:"play_count"`
}
