package domain

import (
	"time"

	"github.com/purrytify/soundcapsule/internal/clock"
)

// SongStreak counts consecutive calendar days on which one user played one
// song at least once. One row exists per (user, song identity) regardless
// of how many sessions that song has.
type SongStreak struct {
	Key           string    `json:"key"`
	UserID        string    `json:"user_id"`
	SongID        int64     `json:"song_id"`
	SongTitle     string    `json:"song_title"`
	ArtistName    string    `json:"artist_name"`
	CurrentStreak int       `json:"current_streak"`
	LastPlayedDate string   `json:"last_played_date"` // yyyy-MM-dd
	IsOnline      bool      `json:"is_online"`
	OnlineID      *int64    `json:"online_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewSongStreak creates a day-one streak for the first play of a song.
func NewSongStreak(userID string, song Song, playedDate string, now time.Time) *SongStreak {
	return &SongStreak{
		Key:            StreakKey(userID, song),
		UserID:         userID,
		SongID:         song.ID,
		SongTitle:      song.Title,
		ArtistName:     song.Artist,
		CurrentStreak:  1,
		LastPlayedDate: playedDate,
		IsOnline:       song.IsOnline,
		OnlineID:       song.OnlineID,
		UpdatedAt:      now,
	}
}

// Advance applies one play on playedDate (yyyy-MM-dd) to the streak:
//
//	gap of exactly 1 day  -> streak grows by one
//	same day              -> streak unchanged (replays don't inflate it)
//	anything else         -> streak resets to 1
//
// Unparseable dates are treated as an infinite gap and force a reset
// rather than failing; a corrupt date must never take the recorder down.
func (st *SongStreak) Advance(playedDate string, loc *time.Location, now time.Time) {
	days, err := clock.DaysBetween(st.LastPlayedDate, playedDate, loc)
	switch {
	case err == nil && days == 0:
		// Same-day replay: refresh the date only.
	case err == nil && days == 1:
		st.CurrentStreak++
	default:
		st.CurrentStreak = 1
	}
	st.LastPlayedDate = playedDate
	st.UpdatedAt = now
}

// IsActive reports whether the streak is worth surfacing in the UI
// (two or more consecutive days).
func (st *SongStreak) IsActive() bool {
	return st.CurrentStreak >= 2
}
