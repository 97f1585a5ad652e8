package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/purrytify/soundcapsule/internal/domain"
	"github.com/purrytify/soundcapsule/internal/store"
)

func testStreak(userID string, song domain.Song, playedDate string, current int) *domain.SongStreak {
	streak := domain.NewSongStreak(userID, song, playedDate, time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC))
	streak.CurrentStreak = current
	return streak
}

func TestUpsertAndGetStreak(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	onlineID := int64(77)
	song := domain.Song{ID: -2, Title: "Weird Fishes", Artist: "Radiohead", IsOnline: true, OnlineID: &onlineID}
	streak := testStreak("user-1", song, "2025-03-15", 1)

	if err := s.UpsertStreak(ctx, streak); err != nil {
		t.Fatalf("UpsertStreak: %v", err)
	}

	got, err := s.GetStreak(ctx, streak.Key)
	if err != nil {
		t.Fatalf("GetStreak: %v", err)
	}
	if got.Key != "streak_user-1_online_77" {
		t.Errorf("Key: got %q", got.Key)
	}
	if got.CurrentStreak != 1 {
		t.Errorf("CurrentStreak: got %d, want 1", got.CurrentStreak)
	}
	if got.LastPlayedDate != "2025-03-15" {
		t.Errorf("LastPlayedDate: got %q", got.LastPlayedDate)
	}
	if !got.IsOnline || got.OnlineID == nil || *got.OnlineID != onlineID {
		t.Errorf("online identity: got IsOnline=%v OnlineID=%v", got.IsOnline, got.OnlineID)
	}
	if !got.UpdatedAt.Equal(streak.UpdatedAt) {
		t.Errorf("UpdatedAt: got %v, want %v", got.UpdatedAt, streak.UpdatedAt)
	}
}

func TestUpsertStreak_Replaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	song := domain.Song{ID: 5, Title: "Song", Artist: "Artist"}
	if err := s.UpsertStreak(ctx, testStreak("user-1", song, "2025-03-14", 2)); err != nil {
		t.Fatalf("UpsertStreak: %v", err)
	}
	if err := s.UpsertStreak(ctx, testStreak("user-1", song, "2025-03-15", 3)); err != nil {
		t.Fatalf("UpsertStreak: %v", err)
	}

	got, err := s.GetStreak(ctx, domain.StreakKey("user-1", song))
	if err != nil {
		t.Fatalf("GetStreak: %v", err)
	}
	if got.CurrentStreak != 3 || got.LastPlayedDate != "2025-03-15" {
		t.Errorf("got streak=%d date=%q, want 3 / 2025-03-15", got.CurrentStreak, got.LastPlayedDate)
	}
}

func TestGetStreak_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetStreak(context.Background(), "streak_user-1_local_404")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestGetStreaksForUser_Ordering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries := []struct {
		song    domain.Song
		date    string
		current int
	}{
		{domain.Song{ID: 1, Title: "Short", Artist: "A"}, "2025-03-15", 2},
		{domain.Song{ID: 2, Title: "Long", Artist: "B"}, "2025-03-10", 5},
		{domain.Song{ID: 3, Title: "Recent", Artist: "C"}, "2025-03-15", 5},
	}
	for _, e := range entries {
		if err := s.UpsertStreak(ctx, testStreak("user-1", e.song, e.date, e.current)); err != nil {
			t.Fatalf("UpsertStreak: %v", err)
		}
	}
	// Another user's streak must not leak in.
	if err := s.UpsertStreak(ctx, testStreak("user-2", domain.Song{ID: 9, Title: "Other", Artist: "Z"}, "2025-03-15", 9)); err != nil {
		t.Fatalf("UpsertStreak: %v", err)
	}

	streaks, err := s.GetStreaksForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetStreaksForUser: %v", err)
	}
	if len(streaks) != 3 {
		t.Fatalf("got %d streaks, want 3", len(streaks))
	}
	// Longest first; equal lengths break by most recent play.
	if streaks[0].SongTitle != "Recent" || streaks[1].SongTitle != "Long" || streaks[2].SongTitle != "Short" {
		t.Errorf("order: got %q, %q, %q", streaks[0].SongTitle, streaks[1].SongTitle, streaks[2].SongTitle)
	}
}

func TestDeleteStreaksLastPlayedBefore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Cutoff 2025-03-01: exactly-on-cutoff rows survive, older rows go.
	rows := []struct {
		song domain.Song
		date string
		kept bool
	}{
		{domain.Song{ID: 1, Title: "Fresh", Artist: "A"}, "2025-03-20", true},
		{domain.Song{ID: 2, Title: "OnCutoff", Artist: "B"}, "2025-03-01", true},
		{domain.Song{ID: 3, Title: "DayStale", Artist: "C"}, "2025-02-28", false},
		{domain.Song{ID: 4, Title: "Ancient", Artist: "D"}, "2024-12-31", false},
	}
	for _, r := range rows {
		if err := s.UpsertStreak(ctx, testStreak("user-1", r.song, r.date, 1)); err != nil {
			t.Fatalf("UpsertStreak: %v", err)
		}
	}

	deleted, err := s.DeleteStreaksLastPlayedBefore(ctx, "2025-03-01")
	if err != nil {
		t.Fatalf("DeleteStreaksLastPlayedBefore: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted: got %d, want 2", deleted)
	}

	remaining, err := s.GetStreaksForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetStreaksForUser: %v", err)
	}
	kept := make(map[string]bool, len(remaining))
	for _, streak := range remaining {
		kept[streak.SongTitle] = true
	}
	for _, r := range rows {
		if kept[r.song.Title] != r.kept {
			t.Errorf("%s: kept=%v, want %v", r.song.Title, kept[r.song.Title], r.kept)
		}
	}
}

func TestDeleteStreaksLastPlayedBefore_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertStreak(ctx, testStreak("user-1", domain.Song{ID: 1, Title: "Old", Artist: "A"}, "2025-01-01", 1)); err != nil {
		t.Fatalf("UpsertStreak: %v", err)
	}

	first, err := s.DeleteStreaksLastPlayedBefore(ctx, "2025-02-01")
	if err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if first != 1 {
		t.Errorf("first delete: got %d, want 1", first)
	}

	second, err := s.DeleteStreaksLastPlayedBefore(ctx, "2025-02-01")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if second != 0 {
		t.Errorf("second delete: got %d, want 0", second)
	}
}
