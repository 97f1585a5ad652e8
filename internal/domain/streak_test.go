package domain

import (
	"testing"
	"time"
)

func testSong() Song {
	return Song{ID: 42, Title: "Starman", Artist: "David Bowie", DurationMs: 256_000}
}

func TestNewSongStreak_StartsAtOne(t *testing.T) {
	now := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)
	st := NewSongStreak("user-1", testSong(), "2025-03-07", now)

	if st.CurrentStreak != 1 {
		t.Errorf("CurrentStreak: got %d, want 1", st.CurrentStreak)
	}
	if st.LastPlayedDate != "2025-03-07" {
		t.Errorf("LastPlayedDate: got %q, want %q", st.LastPlayedDate, "2025-03-07")
	}
	if st.Key != StreakKey("user-1", testSong()) {
		t.Errorf("Key: got %q, want %q", st.Key, StreakKey("user-1", testSong()))
	}
}

func TestAdvance(t *testing.T) {
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		lastPlayed string
		streak     int
		playedDate string
		wantStreak int
	}{
		{"consecutive day grows", "2025-03-07", 3, "2025-03-08", 4},
		{"same day replay unchanged", "2025-03-07", 3, "2025-03-07", 3},
		{"two day gap resets", "2025-03-07", 5, "2025-03-09", 1},
		{"long gap resets", "2025-03-07", 5, "2025-04-20", 1},
		{"backwards date resets", "2025-03-07", 5, "2025-03-05", 1},
		{"unparseable last date resets", "garbage", 5, "2025-03-08", 1},
		{"unparseable played date resets", "2025-03-07", 5, "not-a-date", 1},
		{"month boundary grows", "2025-02-28", 2, "2025-03-01", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &SongStreak{
				Key:            "streak_u_local_42",
				UserID:         "u",
				CurrentStreak:  tt.streak,
				LastPlayedDate: tt.lastPlayed,
			}

			st.Advance(tt.playedDate, time.UTC, now)

			if st.CurrentStreak != tt.wantStreak {
				t.Errorf("CurrentStreak: got %d, want %d", st.CurrentStreak, tt.wantStreak)
			}
			if st.LastPlayedDate != tt.playedDate {
				t.Errorf("LastPlayedDate: got %q, want %q", st.LastPlayedDate, tt.playedDate)
			}
			if !st.UpdatedAt.Equal(now) {
				t.Errorf("UpdatedAt: got %v, want %v", st.UpdatedAt, now)
			}
		})
	}
}

func TestAdvance_ThreeConsecutiveDays(t *testing.T) {
	now := time.Now().UTC()
	st := NewSongStreak("user-1", testSong(), "2025-03-07", now)

	st.Advance("2025-03-08", time.UTC, now)
	st.Advance("2025-03-09", time.UTC, now)

	if st.CurrentStreak != 3 {
		t.Errorf("after three consecutive days: got %d, want 3", st.CurrentStreak)
	}
}

func TestAdvance_SameDayReplayThenNextDay(t *testing.T) {
	now := time.Now().UTC()
	st := NewSongStreak("user-1", testSong(), "2025-03-07", now)

	// Replaying twice on day one must not inflate the next-day increment.
	st.Advance("2025-03-07", time.UTC, now)
	st.Advance("2025-03-08", time.UTC, now)

	if st.CurrentStreak != 2 {
		t.Errorf("got %d, want 2", st.CurrentStreak)
	}
}

func TestIsActive(t *testing.T) {
	st := &SongStreak{CurrentStreak: 1}
	if st.IsActive() {
		t.Error("streak of 1 should not be active")
	}
	st.CurrentStreak = 2
	if !st.IsActive() {
		t.Error("streak of 2 should be active")
	}
}
