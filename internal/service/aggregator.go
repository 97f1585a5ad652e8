package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/purrytify/soundcapsule/internal/clock"
	"github.com/purrytify/soundcapsule/internal/domain"
	"github.com/purrytify/soundcapsule/internal/sse"
	"github.com/purrytify/soundcapsule/internal/store"
)

// AggregatorService recomputes monthly listening summaries from the session
// table. Recomputation is derived entirely from stored sessions, so running
// it twice for the same month produces the same row.
type AggregatorService struct {
	store  store.Store
	events store.EventEmitter
	clock  clock.Clock
	logger *slog.Logger
}

// NewAggregatorService creates a new aggregator service.
func NewAggregatorService(st store.Store, events store.EventEmitter, clk clock.Clock, logger *slog.Logger) *AggregatorService {
	return &AggregatorService{
		store:  st,
		events: events,
		clock:  clk,
		logger: logger,
	}
}

// RecomputeMonth rebuilds the summary row for a (user, month) from session
// data and stores it under its deterministic key.
func (s *AggregatorService) RecomputeMonth(ctx context.Context, userID, month string) (*domain.MonthlyAnalytics, error) {
	totals, err := s.store.AggregateMonth(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("aggregate month: %w", err)
	}

	analytics := &domain.MonthlyAnalytics{
		Key:                  domain.AnalyticsKey(userID, month),
		UserID:               userID,
		Month:                month,
		TotalListeningTimeMs: totals.TotalListeningTimeMs,
		UniqueSongsCount:     totals.UniqueSongs,
		UniqueArtistsCount:   totals.UniqueArtists,
		LastUpdated:          s.clock.Now(),
	}

	if err := s.store.UpsertMonthlyAnalytics(ctx, analytics); err != nil {
		return nil, fmt.Errorf("store monthly analytics: %w", err)
	}

	s.events.Emit(sse.NewAnalyticsEvent(analytics))

	s.logger.Debug("recomputed monthly analytics",
		"user_id", userID,
		"month", month,
		"total_ms", analytics.TotalListeningTimeMs,
		"unique_songs", analytics.UniqueSongsCount,
		"unique_artists", analytics.UniqueArtistsCount,
	)

	return analytics, nil
}
