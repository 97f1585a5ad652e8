// Package store defines the persistence contract for the analytics core:
// listening sessions, song streaks and monthly summaries, plus the
// aggregate queries the reporting layer is built on.
package store

import (
	"context"

	"github.com/purrytify/soundcapsule/internal/domain"
)

// EventEmitter broadcasts store changes to live views (SSE).
// The store depends on this interface only, never on the SSE implementation.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// MonthTotals holds the aggregate counters recomputed from the session
// table for one (user, month).
type MonthTotals struct {
	TotalListeningTimeMs int64
	UniqueSongs          int
	UniqueArtists        int
}

// Store is the persistence contract the services are written against.
// All writes are independently atomic upserts keyed by deterministic
// identifiers; no cross-row transactions are required.
type Store interface {
	// Sessions.
	CreateSession(ctx context.Context, session *domain.ListeningSession) error
	UpdateSession(ctx context.Context, session *domain.ListeningSession) error
	GetSession(ctx context.Context, id string) (*domain.ListeningSession, error)
	GetSessionsForMonth(ctx context.Context, userID, month string) ([]*domain.ListeningSession, error)

	// Aggregates over sessions.
	AggregateMonth(ctx context.Context, userID, month string) (MonthTotals, error)
	TopArtists(ctx context.Context, userID, month string, limit int) ([]*domain.ArtistStat, error)
	TopSongs(ctx context.Context, userID, month string, limit int) ([]*domain.SongStat, error)

	// Streaks.
	UpsertStreak(ctx context.Context, streak *domain.SongStreak) error
	GetStreak(ctx context.Context, key string) (*domain.SongStreak, error)
	GetStreaksForUser(ctx context.Context, userID string) ([]*domain.SongStreak, error)
	DeleteStreaksLastPlayedBefore(ctx context.Context, cutoffDate string) (int64, error)

	// Monthly summaries.
	UpsertMonthlyAnalytics(ctx context.Context, analytics *domain.MonthlyAnalytics) error
	GetMonthlyAnalytics(ctx context.Context, key string) (*domain.MonthlyAnalytics, error)
	GetAvailableMonths(ctx context.Context, userID string) ([]string, error)

	Close() error
}
