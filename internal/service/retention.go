package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/purrytify/soundcapsule/internal/clock"
	"github.com/purrytify/soundcapsule/internal/store"
)

// RetentionService prunes streak rows that have gone stale. A streak whose
// song has not been played within the retention window is dead weight; the
// next play would reset it to day one anyway.
type RetentionService struct {
	store      store.Store
	clock      clock.Clock
	windowDays int
	logger     *slog.Logger
}

// NewRetentionService creates a new retention service keeping windowDays of
// streak inactivity.
func NewRetentionService(st store.Store, clk clock.Clock, windowDays int, logger *slog.Logger) *RetentionService {
	return &RetentionService{
		store:      st,
		clock:      clk,
		windowDays: windowDays,
		logger:     logger,
	}
}

// DeleteStaleStreaks removes streaks last played strictly before the cutoff
// date. A streak last played exactly windowDays ago survives. Safe to run
// concurrently with live writes: deletion races resolve last-write-wins on
// the streak key.
func (s *RetentionService) DeleteStaleStreaks(ctx context.Context) (int64, error) {
	now := s.clock.Now().In(s.clock.Location())
	cutoff := clock.DateKey(now.AddDate(0, 0, -s.windowDays))

	deleted, err := s.store.DeleteStreaksLastPlayedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale streaks: %w", err)
	}

	if deleted > 0 {
		s.logger.Info("deleted stale streaks",
			"deleted", deleted,
			"cutoff_date", cutoff)
	} else {
		s.logger.Debug("no stale streaks to delete", "cutoff_date", cutoff)
	}

	return deleted, nil
}
