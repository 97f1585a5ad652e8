package sqlite

import (
	"context"
	"database/sql"

	"github.com/purrytify/soundcapsule/internal/domain"
	"github.com/purrytify/soundcapsule/internal/store"
)

// analyticsColumns is the ordered list of columns selected in monthly
// analytics queries. Must match the scan order in scanAnalytics.
const analyticsColumns = `key, user_id, month, total_listening_time_ms,
	total_songs_played, unique_songs_count, unique_artists_count, last_updated`

// scanAnalytics scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.MonthlyAnalytics.
func scanAnalytics(scanner interface{ Scan(dest ...any) error }) (*domain.MonthlyAnalytics, error) {
	var ma domain.MonthlyAnalytics

	var lastUpdated string

	err := scanner.Scan(
		&ma.Key,
		&ma.UserID,
		&ma.Month,
		&ma.TotalListeningTimeMs,
		&ma.TotalSongsPlayed,
		&ma.UniqueSongsCount,
		&ma.UniqueArtistsCount,
		&lastUpdated,
	)
	if err != nil {
		return nil, err
	}

	ma.LastUpdated, err = parseTime(lastUpdated)
	if err != nil {
		return nil, err
	}

	return &ma, nil
}

// UpsertMonthlyAnalytics creates or replaces the summary row for a
// (user, month) by its deterministic key.
func (s *Store) UpsertMonthlyAnalytics(ctx context.Context, analytics *domain.MonthlyAnalytics) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO monthly_analytics (
			key, user_id, month, total_listening_time_ms,
			total_songs_played, unique_songs_count, unique_artists_count, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		analytics.Key,
		analytics.UserID,
		analytics.Month,
		analytics.TotalListeningTimeMs,
		analytics.TotalSongsPlayed,
		analytics.UniqueSongsCount,
		analytics.UniqueArtistsCount,
		formatTime(analytics.LastUpdated),
	)
	return err
}

// GetMonthlyAnalytics retrieves a summary row by its deterministic key.
// Returns store.ErrNotFound if no row exists.
func (s *Store) GetMonthlyAnalytics(ctx context.Context, key string) (*domain.MonthlyAnalytics, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+analyticsColumns+` FROM monthly_analytics WHERE key = ?`, key)

	analytics, err := scanAnalytics(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return analytics, nil
}

// GetAvailableMonths returns the distinct months with a summary row for a
// user, sorted ascending (the yyyy-MM format sorts lexically).
func (s *Store) GetAvailableMonths(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT month FROM monthly_analytics WHERE user_id = ? ORDER BY month ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var months []string
	for rows.Next() {
		var month string
		if err := rows.Scan(&month); err != nil {
			return nil, err
		}
		months = append(months, month)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return months, nil
}
