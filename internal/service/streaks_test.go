package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/purrytify/soundcapsule/internal/domain"
)

func TestStreak_ConsecutiveDaysGrow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	song := testSong(1, "Song", "Artist")

	for i, date := range []string{"2025-03-10", "2025-03-11", "2025-03-12"} {
		streak, err := env.streaks.RecordPlay(ctx, "user-1", song, date)
		require.NoError(t, err)
		assert.Equal(t, i+1, streak.CurrentStreak, "after play on %s", date)
	}
}

func TestStreak_SameDayReplayDoesNotInflate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	song := testSong(2, "Song", "Artist")

	_, err := env.streaks.RecordPlay(ctx, "user-1", song, "2025-03-10")
	require.NoError(t, err)
	streak, err := env.streaks.RecordPlay(ctx, "user-1", song, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)

	// Next day still counts as consecutive.
	streak, err = env.streaks.RecordPlay(ctx, "user-1", song, "2025-03-11")
	require.NoError(t, err)
	assert.Equal(t, 2, streak.CurrentStreak)
}

func TestStreak_GapResets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	song := testSong(3, "Song", "Artist")

	for _, date := range []string{"2025-03-10", "2025-03-11", "2025-03-12"} {
		_, err := env.streaks.RecordPlay(ctx, "user-1", song, date)
		require.NoError(t, err)
	}

	streak, err := env.streaks.RecordPlay(ctx, "user-1", song, "2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, "2025-03-15", streak.LastPlayedDate)
}

func TestStreak_UnparseableDateResets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	song := testSong(4, "Song", "Artist")

	_, err := env.streaks.RecordPlay(ctx, "user-1", song, "2025-03-10")
	require.NoError(t, err)
	_, err = env.streaks.RecordPlay(ctx, "user-1", song, "2025-03-11")
	require.NoError(t, err)

	// A corrupt date forces a safe reset instead of an error.
	streak, err := env.streaks.RecordPlay(ctx, "user-1", song, "not-a-date")
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)
}

func TestStreak_OnlineAndLocalSameIDAreDistinct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	onlineID := int64(42)
	local := domain.Song{ID: 42, Title: "Local", Artist: "A"}
	online := domain.Song{ID: 42, Title: "Online", Artist: "A", IsOnline: true, OnlineID: &onlineID}

	_, err := env.streaks.RecordPlay(ctx, "user-1", local, "2025-03-10")
	require.NoError(t, err)
	_, err = env.streaks.RecordPlay(ctx, "user-1", online, "2025-03-10")
	require.NoError(t, err)

	streaks, err := env.streaks.GetStreaks(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, streaks, 2)
}

func TestStreak_GetActiveFiltersDayOnes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	twoDay := testSong(5, "Kept", "A")
	_, err := env.streaks.RecordPlay(ctx, "user-1", twoDay, "2025-03-10")
	require.NoError(t, err)
	_, err = env.streaks.RecordPlay(ctx, "user-1", twoDay, "2025-03-11")
	require.NoError(t, err)

	_, err = env.streaks.RecordPlay(ctx, "user-1", testSong(6, "DayOne", "B"), "2025-03-11")
	require.NoError(t, err)

	active, err := env.streaks.GetActiveStreaks(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Kept", active[0].SongTitle)
	assert.Equal(t, 2, active[0].CurrentStreak)
}
