package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/purrytify/soundcapsule/internal/domain"
)

func testSong(id int64, title, artist string) domain.Song {
	return domain.Song{ID: id, Title: title, Artist: artist, DurationMs: 240_000}
}

// sessionsFor loads the user's March 2025 sessions, oldest first.
func sessionsFor(t *testing.T, env *testEnv, userID string) []*domain.ListeningSession {
	t.Helper()
	sessions, err := env.store.GetSessionsForMonth(context.Background(), userID, "2025-03")
	require.NoError(t, err)
	return sessions
}

func TestTracker_ContinuousPlayback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.tracker.Start("user-1", testSong(1, "One More Time", "Daft Punk"))

	// Ten one-second ticks of uninterrupted playback.
	for i := 1; i <= 10; i++ {
		env.clock.Advance(time.Second)
		env.tracker.Progress("user-1", int64(i)*1000, true)
	}
	require.NoError(t, env.tracker.End(ctx, "user-1"))

	sessions := sessionsFor(t, env, "user-1")
	require.Len(t, sessions, 1)

	session := sessions[0]
	assert.Equal(t, int64(10_000), session.DurationListenedMs)
	require.NotNil(t, session.EndTime)
	assert.Equal(t, "2025-03-15", session.Date)
	assert.Equal(t, "2025-03", session.Month)
}

func TestTracker_PauseExcludesWallClock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.tracker.Start("user-1", testSong(2, "Nightcall", "Kavinsky"))

	for i := 1; i <= 3; i++ {
		env.clock.Advance(time.Second)
		env.tracker.Progress("user-1", int64(i)*1000, true)
	}
	env.tracker.Pause("user-1")

	// A long paused stretch that must not be credited.
	env.clock.Advance(2 * time.Minute)
	env.tracker.Resume("user-1")

	for i := 4; i <= 6; i++ {
		env.clock.Advance(time.Second)
		env.tracker.Progress("user-1", int64(i)*1000, true)
	}
	require.NoError(t, env.tracker.End(ctx, "user-1"))

	sessions := sessionsFor(t, env, "user-1")
	require.Len(t, sessions, 1)

	session := sessions[0]
	assert.Equal(t, int64(6_000), session.DurationListenedMs)

	wallClock := session.EndTime.Sub(session.StartTime)
	assert.Less(t, session.DurationListenedMs, wallClock.Milliseconds(),
		"listened time must be strictly less than wall clock when paused")
}

func TestTracker_ProgressWhileNotPlayingIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.tracker.Start("user-1", testSong(3, "Song", "Artist"))

	env.clock.Advance(time.Second)
	env.tracker.Progress("user-1", 1000, false)
	env.clock.Advance(time.Second)
	env.tracker.Progress("user-1", 2000, true)
	require.NoError(t, env.tracker.End(ctx, "user-1"))

	sessions := sessionsFor(t, env, "user-1")
	require.Len(t, sessions, 1)
	// Only the playing tick's one-second gap counts.
	assert.Equal(t, int64(1_000), sessions[0].DurationListenedMs)
}

func TestTracker_SeekGapNotCredited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.tracker.Start("user-1", testSong(4, "Song", "Artist"))

	env.clock.Advance(time.Second)
	env.tracker.Progress("user-1", 1000, true)

	// A 10s gap between ticks signals a seek or backgrounding; none of it
	// is listened time.
	env.clock.Advance(10 * time.Second)
	env.tracker.Progress("user-1", 180_000, true)

	env.clock.Advance(time.Second)
	env.tracker.Progress("user-1", 181_000, true)
	require.NoError(t, env.tracker.End(ctx, "user-1"))

	sessions := sessionsFor(t, env, "user-1")
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(2_000), sessions[0].DurationListenedMs)
}

func TestTracker_SwitchSongEndsPrevious(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.tracker.Start("user-1", testSong(5, "First", "Artist A"))
	env.clock.Advance(time.Second)
	env.tracker.Progress("user-1", 1000, true)
	env.clock.Advance(time.Second)
	env.tracker.Progress("user-1", 2000, true)

	// Switching songs must flush the first session before starting fresh.
	env.tracker.Start("user-1", testSong(6, "Second", "Artist B"))
	env.clock.Advance(time.Second)
	env.tracker.Progress("user-1", 1000, true)
	require.NoError(t, env.tracker.End(ctx, "user-1"))

	sessions := sessionsFor(t, env, "user-1")
	require.Len(t, sessions, 2)

	assert.Equal(t, "First", sessions[0].SongTitle)
	assert.Equal(t, int64(2_000), sessions[0].DurationListenedMs)
	require.NotNil(t, sessions[0].EndTime, "previous session must be closed on switch")

	assert.Equal(t, "Second", sessions[1].SongTitle)
	assert.Equal(t, int64(1_000), sessions[1].DurationListenedMs)
}

func TestTracker_StartCreatesStreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	song := testSong(7, "Song", "Artist")
	env.tracker.Start("user-1", song)
	require.NoError(t, env.tracker.End(ctx, "user-1"))

	streak, err := env.store.GetStreak(ctx, domain.StreakKey("user-1", song))
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, "2025-03-15", streak.LastPlayedDate)
}

func TestTracker_EndRecomputesMonthlyAnalytics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.tracker.Start("user-1", testSong(8, "Song", "Artist"))
	env.clock.Advance(time.Second)
	env.tracker.Progress("user-1", 1000, true)
	require.NoError(t, env.tracker.End(ctx, "user-1"))

	analytics, err := env.store.GetMonthlyAnalytics(ctx, domain.AnalyticsKey("user-1", "2025-03"))
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), analytics.TotalListeningTimeMs)
	assert.Equal(t, 1, analytics.UniqueSongsCount)
	assert.Equal(t, 1, analytics.UniqueArtistsCount)
}

func TestTracker_EndWithoutSessionIsNoop(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.tracker.End(context.Background(), "user-1"))
}

func TestTracker_PauseResumeOutOfOrderAreNoops(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Resume with nothing paused, pause with nothing active.
	env.tracker.Resume("user-1")
	env.tracker.Pause("user-1")
	require.NoError(t, env.tracker.End(ctx, "user-1"))

	sessions := sessionsFor(t, env, "user-1")
	assert.Empty(t, sessions)
}

func TestTracker_UsersAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.tracker.Start("user-1", testSong(9, "Mine", "A"))
	env.tracker.Start("user-2", testSong(10, "Yours", "B"))

	env.clock.Advance(time.Second)
	env.tracker.Progress("user-1", 1000, true)
	env.tracker.Progress("user-2", 1000, true)

	require.NoError(t, env.tracker.End(ctx, "user-1"))
	require.NoError(t, env.tracker.End(ctx, "user-2"))

	require.Len(t, sessionsFor(t, env, "user-1"), 1)
	require.Len(t, sessionsFor(t, env, "user-2"), 1)
}

func TestTracker_ShutdownFlushesOpenSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.tracker.Start("user-1", testSong(11, "Song", "Artist"))
	env.clock.Advance(time.Second)
	env.tracker.Progress("user-1", 1000, true)

	require.NoError(t, env.tracker.Shutdown(ctx))

	sessions := sessionsFor(t, env, "user-1")
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(1_000), sessions[0].DurationListenedMs)
	assert.NotNil(t, sessions[0].EndTime)
}
