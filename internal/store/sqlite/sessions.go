package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/purrytify/soundcapsule/internal/domain"
	"github.com/purrytify/soundcapsule/internal/store"
)

// sessionColumns is the ordered list of columns selected in session queries.
// Must match the scan order in scanSession.
const sessionColumns = `id, user_id, song_id, song_title, artist_name,
	start_time, end_time, duration_listened_ms, total_duration_ms,
	date, month, is_online, online_id`

// scanSession scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.ListeningSession.
func scanSession(scanner interface{ Scan(dest ...any) error }) (*domain.ListeningSession, error) {
	var ls domain.ListeningSession

	var (
		startTime string
		endTime   sql.NullString
		isOnline  int
		onlineID  sql.NullInt64
	)

	err := scanner.Scan(
		&ls.ID,
		&ls.UserID,
		&ls.SongID,
		&ls.SongTitle,
		&ls.ArtistName,
		&startTime,
		&endTime,
		&ls.DurationListenedMs,
		&ls.TotalDurationMs,
		&ls.Date,
		&ls.Month,
		&isOnline,
		&onlineID,
	)
	if err != nil {
		return nil, err
	}

	ls.StartTime, err = parseTime(startTime)
	if err != nil {
		return nil, err
	}
	ls.EndTime, err = parseNullableTime(endTime)
	if err != nil {
		return nil, err
	}

	ls.IsOnline = isOnline != 0
	ls.OnlineID = int64PtrFromNull(onlineID)

	return &ls, nil
}

// CreateSession inserts a new listening session.
// Returns store.ErrAlreadyExists if the session ID already exists.
func (s *Store) CreateSession(ctx context.Context, session *domain.ListeningSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO listening_sessions (
			id, user_id, song_id, song_title, artist_name,
			start_time, end_time, duration_listened_ms, total_duration_ms,
			date, month, is_online, online_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.SongID,
		session.SongTitle,
		session.ArtistName,
		formatTime(session.StartTime),
		nullTimeString(session.EndTime),
		session.DurationListenedMs,
		session.TotalDurationMs,
		session.Date,
		session.Month,
		boolToInt(session.IsOnline),
		nullInt64Ptr(session.OnlineID),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// UpdateSession persists the mutable fields of an open session: accumulated
// duration and end time. Date and month are fixed at creation and are
// deliberately not written here.
func (s *Store) UpdateSession(ctx context.Context, session *domain.ListeningSession) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE listening_sessions
		SET duration_listened_ms = ?, end_time = ?
		WHERE id = ?`,
		session.DurationListenedMs,
		nullTimeString(session.EndTime),
		session.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetSession retrieves a listening session by ID.
// Returns store.ErrNotFound if the session does not exist.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.ListeningSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM listening_sessions WHERE id = ?`, id)

	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetSessionsForMonth retrieves all sessions for a (user, month), ordered
// by start time ascending.
func (s *Store) GetSessionsForMonth(ctx context.Context, userID, month string) ([]*domain.ListeningSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM listening_sessions
		 WHERE user_id = ? AND month = ?
		 ORDER BY start_time ASC`,
		userID, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.ListeningSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// AggregateMonth recomputes the summary counters for a (user, month) from
// the session table. Safe to call redundantly: it is a pure read.
func (s *Store) AggregateMonth(ctx context.Context, userID, month string) (store.MonthTotals, error) {
	var (
		totals   store.MonthTotals
		totalSum sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT
			SUM(duration_listened_ms),
			COUNT(DISTINCT `+songIdentityExpr+`),
			COUNT(DISTINCT artist_name)
		FROM listening_sessions
		WHERE user_id = ? AND month = ?`,
		userID, month).Scan(&totalSum, &totals.UniqueSongs, &totals.UniqueArtists)
	if err != nil {
		return store.MonthTotals{}, err
	}
	if totalSum.Valid {
		totals.TotalListeningTimeMs = totalSum.Int64
	}
	return totals, nil
}

// TopArtists ranks artists for a (user, month) by summed listening time
// descending; ties break deterministically by artist name ascending.
func (s *Store) TopArtists(ctx context.Context, userID, month string, limit int) ([]*domain.ArtistStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT artist_name, SUM(duration_listened_ms) AS total_ms, COUNT(*) AS plays
		FROM listening_sessions
		WHERE user_id = ? AND month = ?
		GROUP BY artist_name
		ORDER BY total_ms DESC, artist_name ASC
		LIMIT ?`,
		userID, month, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*domain.ArtistStat
	for rows.Next() {
		var stat domain.ArtistStat
		if err := rows.Scan(&stat.ArtistName, &stat.TotalDurationMs, &stat.PlayCount); err != nil {
			return nil, err
		}
		stats = append(stats, &stat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// TopSongs ranks songs for a (user, month) by summed listening time
// descending; ties break deterministically by song identity ascending.
func (s *Store) TopSongs(ctx context.Context, userID, month string, limit int) ([]*domain.SongStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+songIdentityExpr+` AS song_key,
			MAX(song_title), MAX(artist_name),
			SUM(duration_listened_ms) AS total_ms, COUNT(*) AS plays
		FROM listening_sessions
		WHERE user_id = ? AND month = ?
		GROUP BY song_key
		ORDER BY total_ms DESC, song_key ASC
		LIMIT ?`,
		userID, month, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*domain.SongStat
	for rows.Next() {
		var stat domain.SongStat
		if err := rows.Scan(&stat.SongKey, &stat.SongTitle, &stat.ArtistName, &stat.TotalDurationMs, &stat.PlayCount); err != nil {
			return nil, err
		}
		stats = append(stats, &stat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
