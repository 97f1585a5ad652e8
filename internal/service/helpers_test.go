package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/purrytify/soundcapsule/internal/store"
	"github.com/purrytify/soundcapsule/internal/store/sqlite"
)

// fakeClock is a mutex-guarded manual clock. Tests advance it explicitly;
// tracker timestamps are captured on the caller's goroutine, so ordering
// stays deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
	loc *time.Location
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, loc: time.UTC}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Location() *time.Location { return c.loc }

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testEnv struct {
	store      store.Store
	clock      *fakeClock
	streaks    *StreakService
	aggregator *AggregatorService
	tracker    *Tracker
}

// testStart is noon UTC mid-March; far from any day boundary so advancing
// the clock by seconds never flips the session date.
var testStart = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.DiscardHandler)
	emitter := store.NewNoopEmitter()
	clk := newFakeClock(testStart)

	streaks := NewStreakService(st, emitter, clk, logger)
	aggregator := NewAggregatorService(st, emitter, clk, logger)
	tracker := NewTracker(st, streaks, aggregator, emitter, clk, logger)
	t.Cleanup(func() {
		_ = tracker.Shutdown(context.Background())
	})

	return &testEnv{
		store:      st,
		clock:      clk,
		streaks:    streaks,
		aggregator: aggregator,
		tracker:    tracker,
	}
}
