package domain

import (
	"time"

	"github.com/purrytify/soundcapsule/internal/clock"
)

// ListeningSession is one playback attempt of one song by one user.
// It is created when playback starts and mutated (duration, end time) as
// the recorder flushes; it is never deleted by the analytics core.
type ListeningSession struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	SongID    int64  `json:"song_id"`
	SongTitle string `json:"song_title"`
	// ArtistName is captured at creation time so reports keep working even
	// if the song is later edited or removed from the library.
	ArtistName string     `json:"artist_name"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	// DurationListenedMs only ever grows while the session is open.
	DurationListenedMs int64 `json:"duration_listened_ms"`
	TotalDurationMs    int64 `json:"total_duration_ms"`
	// Date and Month are fixed from StartTime at creation and never
	// recomputed, even when the session is updated past midnight.
	Date     string `json:"date"`  // yyyy-MM-dd
	Month    string `json:"month"` // yyyy-MM
	IsOnline bool   `json:"is_online"`
	OnlineID *int64 `json:"online_id,omitempty"`
}

// NewListeningSession creates an open session for a song starting now.
func NewListeningSession(id, userID string, song Song, startTime time.Time) *ListeningSession {
	return &ListeningSession{
		ID:              id,
		UserID:          userID,
		SongID:          song.ID,
		SongTitle:       song.Title,
		ArtistName:      song.Artist,
		StartTime:       startTime,
		TotalDurationMs: song.DurationMs,
		Date:            clock.DateKey(startTime),
		Month:           clock.MonthKey(startTime),
		IsOnline:        song.IsOnline,
		OnlineID:        song.OnlineID,
	}
}

// Song reconstructs the descriptor the session was created from.
func (s *ListeningSession) Song() Song {
	return Song{
		ID:         s.SongID,
		Title:      s.SongTitle,
		Artist:     s.ArtistName,
		DurationMs: s.TotalDurationMs,
		IsOnline:   s.IsOnline,
		OnlineID:   s.OnlineID,
	}
}

// Close stamps the end time. Duration accounting happens in the recorder;
// closing never shrinks DurationListenedMs.
func (s *ListeningSession) Close(endTime time.Time) {
	t := endTime
	s.EndTime = &t
}
