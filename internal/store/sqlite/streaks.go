package sqlite

import (
	"context"
	"database/sql"

	"github.com/purrytify/soundcapsule/internal/domain"
	"github.com/purrytify/soundcapsule/internal/store"
)

// streakColumns is the ordered list of columns selected in streak queries.
// Must match the scan order in scanStreak.
const streakColumns = `key, user_id, song_id, song_title, artist_name,
	current_streak, last_played_date, is_online, online_id, updated_at`

// scanStreak scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.SongStreak.
func scanStreak(scanner interface{ Scan(dest ...any) error }) (*domain.SongStreak, error) {
	var st domain.SongStreak

	var (
		isOnline  int
		onlineID  sql.NullInt64
		updatedAt string
	)

	err := scanner.Scan(
		&st.Key,
		&st.UserID,
		&st.SongID,
		&st.SongTitle,
		&st.ArtistName,
		&st.CurrentStreak,
		&st.LastPlayedDate,
		&isOnline,
		&onlineID,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	st.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	st.IsOnline = isOnline != 0
	st.OnlineID = int64PtrFromNull(onlineID)

	return &st, nil
}

// UpsertStreak creates or replaces a streak row by its deterministic key.
// Concurrent writers converge last-write-wins on the key.
func (s *Store) UpsertStreak(ctx context.Context, streak *domain.SongStreak) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO song_streaks (
			key, user_id, song_id, song_title, artist_name,
			current_streak, last_played_date, is_online, online_id, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		streak.Key,
		streak.UserID,
		streak.SongID,
		streak.SongTitle,
		streak.ArtistName,
		streak.CurrentStreak,
		streak.LastPlayedDate,
		boolToInt(streak.IsOnline),
		nullInt64Ptr(streak.OnlineID),
		formatTime(streak.UpdatedAt),
	)
	return err
}

// GetStreak retrieves a streak by its deterministic key.
// Returns store.ErrNotFound if no streak exists for the key.
func (s *Store) GetStreak(ctx context.Context, key string) (*domain.SongStreak, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+streakColumns+` FROM song_streaks WHERE key = ?`, key)

	streak, err := scanStreak(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return streak, nil
}

// GetStreaksForUser retrieves all streaks for a user, longest first; ties
// break by most recently played.
func (s *Store) GetStreaksForUser(ctx context.Context, userID string) ([]*domain.SongStreak, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+streakColumns+` FROM song_streaks
		 WHERE user_id = ?
		 ORDER BY current_streak DESC, last_played_date DESC, key ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var streaks []*domain.SongStreak
	for rows.Next() {
		streak, err := scanStreak(rows)
		if err != nil {
			return nil, err
		}
		streaks = append(streaks, streak)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return streaks, nil
}

// DeleteStreaksLastPlayedBefore removes streaks whose last played date is
// strictly before cutoffDate (yyyy-MM-dd; the format sorts lexically).
// A streak last played exactly on the cutoff date is retained.
func (s *Store) DeleteStreaksLastPlayedBefore(ctx context.Context, cutoffDate string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM song_streaks WHERE last_played_date < ?`, cutoffDate)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
