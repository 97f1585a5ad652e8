package api

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/purrytify/soundcapsule/internal/domain"
	"github.com/purrytify/soundcapsule/internal/http/response"
	"github.com/purrytify/soundcapsule/internal/service"
)

// monthPattern matches the yyyy-MM month keys used throughout the API.
var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// MonthlyAnalyticsResponse is the summary payload for one month, with the
// listening time pre-formatted the way the capsule screen shows it.
type MonthlyAnalyticsResponse struct {
	Month                string `json:"month"`
	TotalListeningTimeMs int64  `json:"total_listening_time_ms"`
	TotalListeningTime   string `json:"total_listening_time"`
	UniqueSongsCount     int    `json:"unique_songs_count"`
	UniqueArtistsCount   int    `json:"unique_artists_count"`
}

func monthlyAnalyticsResponse(a *domain.MonthlyAnalytics) MonthlyAnalyticsResponse {
	return MonthlyAnalyticsResponse{
		Month:                a.Month,
		TotalListeningTimeMs: a.TotalListeningTimeMs,
		TotalListeningTime:   service.FormatListeningTime(a.TotalListeningTimeMs),
		UniqueSongsCount:     a.UniqueSongsCount,
		UniqueArtistsCount:   a.UniqueArtistsCount,
	}
}

// handleGetCurrentMonth returns the summary for the month in progress.
// GET /api/v1/analytics/current
func (s *Server) handleGetCurrentMonth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	month := s.query.CurrentMonth()
	analytics := s.query.GetMonthlyAnalytics(ctx, userID, month)
	response.Success(w, monthlyAnalyticsResponse(analytics), s.logger)
}

// handleGetMonthlyAnalytics returns the summary for a specific month.
// GET /api/v1/analytics/monthly/{month}
func (s *Server) handleGetMonthlyAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}

	analytics := s.query.GetMonthlyAnalytics(ctx, userID, month)
	response.Success(w, monthlyAnalyticsResponse(analytics), s.logger)
}

// handleGetTopArtists returns the month's artists ranked by listening time.
// GET /api/v1/analytics/top-artists/{month}?limit=10
func (s *Server) handleGetTopArtists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}

	artists := s.query.GetTopArtists(ctx, userID, month, parseLimit(r))
	response.Success(w, artists, s.logger)
}

// handleGetTopSongs returns the month's songs ranked by listening time.
// GET /api/v1/analytics/top-songs/{month}?limit=10
func (s *Server) handleGetTopSongs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}

	songs := s.query.GetTopSongs(ctx, userID, month, parseLimit(r))
	response.Success(w, songs, s.logger)
}

// handleGetStreaks returns the user's song streaks, longest first.
// GET /api/v1/analytics/streaks?active=true
func (s *Server) handleGetStreaks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	var streaks []*domain.SongStreak
	if r.URL.Query().Get("active") == "true" {
		streaks = s.query.GetActiveStreaks(ctx, userID)
	} else {
		streaks = s.query.GetStreaks(ctx, userID)
	}

	response.Success(w, streaks, s.logger)
}

// handleGetAvailableMonths returns the months with analytics data.
// GET /api/v1/analytics/months
func (s *Server) handleGetAvailableMonths(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	months := s.query.GetAvailableMonths(ctx, userID)
	response.Success(w, months, s.logger)
}

// handleExportMonth streams the month's CSV report as a download.
// GET /api/v1/analytics/export/{month}
func (s *Server) handleExportMonth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}

	report := s.exporter.BuildReport(ctx, userID, month)
	filename := service.ReportFilename(userID, month)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(report)); err != nil {
		s.logger.Error("Failed to write CSV report", "error", err, "user_id", userID)
	}
}

// monthParam extracts and validates the {month} URL parameter, writing a
// 400 response when it is malformed.
func (s *Server) monthParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	month := chi.URLParam(r, "month")
	if !monthPattern.MatchString(month) {
		response.BadRequest(w, "month must be in yyyy-MM format", s.logger)
		return "", false
	}
	return month, true
}

// parseLimit reads the optional limit query parameter.
// Zero means "use the default".
func parseLimit(r *http.Request) int {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
