package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/purrytify/soundcapsule/internal/clock"
	"github.com/purrytify/soundcapsule/internal/domain"
	"github.com/purrytify/soundcapsule/internal/sse"
	"github.com/purrytify/soundcapsule/internal/store"
)

// StreakService maintains per-song day streaks.
type StreakService struct {
	store  store.Store
	events store.EventEmitter
	clock  clock.Clock
	logger *slog.Logger
}

// NewStreakService creates a new streak service.
func NewStreakService(st store.Store, events store.EventEmitter, clk clock.Clock, logger *slog.Logger) *StreakService {
	return &StreakService{
		store:  st,
		events: events,
		clock:  clk,
		logger: logger,
	}
}

// RecordPlay applies one play of a song on playedDate (yyyy-MM-dd) to the
// user's streak for that song. First play creates a day-one streak; later
// plays advance, hold, or reset it depending on the day gap.
//
// Multiple sessions of the same song on the same day collapse into a single
// streak day, so callers may invoke this once per session without
// inflating the count.
func (s *StreakService) RecordPlay(ctx context.Context, userID string, song domain.Song, playedDate string) (*domain.SongStreak, error) {
	key := domain.StreakKey(userID, song)

	streak, err := s.store.GetStreak(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		streak = domain.NewSongStreak(userID, song, playedDate, s.clock.Now())
	case err != nil:
		return nil, fmt.Errorf("get streak: %w", err)
	default:
		streak.Advance(playedDate, s.clock.Location(), s.clock.Now())
	}

	if err := s.store.UpsertStreak(ctx, streak); err != nil {
		return nil, fmt.Errorf("store streak: %w", err)
	}

	s.events.Emit(sse.NewStreakEvent(streak))

	s.logger.Debug("recorded streak play",
		"key", streak.Key,
		"user_id", userID,
		"current_streak", streak.CurrentStreak,
		"last_played_date", streak.LastPlayedDate,
	)

	return streak, nil
}

// GetStreaks returns all of a user's streaks, longest first.
func (s *StreakService) GetStreaks(ctx context.Context, userID string) ([]*domain.SongStreak, error) {
	return s.store.GetStreaksForUser(ctx, userID)
}

// GetActiveStreaks returns the user's streaks of two or more days, longest
// first. Day-one streaks are bookkeeping, not something to surface.
func (s *StreakService) GetActiveStreaks(ctx context.Context, userID string) ([]*domain.SongStreak, error) {
	streaks, err := s.store.GetStreaksForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := make([]*domain.SongStreak, 0, len(streaks))
	for _, streak := range streaks {
		if streak.IsActive() {
			active = append(active, streak)
		}
	}
	return active, nil
}
