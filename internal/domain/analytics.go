package domain

import "time"

// MonthlyAnalytics is the per-(user, month) summary row. All counters are
// derived by full recomputation over that month's sessions, so writing the
// row twice with no new sessions yields identical values.
type MonthlyAnalytics struct {
	Key                  string    `json:"key"`
	UserID               string    `json:"user_id"`
	Month                string    `json:"month"` // yyyy-MM
	TotalListeningTimeMs int64     `json:"total_listening_time_ms"`
	// TotalSongsPlayed is reserved for a play-count rollup; the aggregator
	// currently leaves it at zero.
	TotalSongsPlayed   int       `json:"total_songs_played"`
	UniqueSongsCount   int       `json:"unique_songs_count"`
	UniqueArtistsCount int       `json:"unique_artists_count"`
	LastUpdated        time.Time `json:"last_updated"`
}
