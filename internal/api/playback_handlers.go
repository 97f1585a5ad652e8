package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/purrytify/soundcapsule/internal/domain"
	"github.com/purrytify/soundcapsule/internal/http/response"
	"github.com/purrytify/soundcapsule/internal/service"
)

// StartPlaybackRequest is the request body for starting a session.
type StartPlaybackRequest struct {
	SongID     int64  `json:"song_id"`
	Title      string `json:"title" validate:"required"`
	Artist     string `json:"artist" validate:"required"`
	DurationMs int64  `json:"duration_ms" validate:"gte=0"`
	IsOnline   bool   `json:"is_online"`
	OnlineID   *int64 `json:"online_id,omitempty"`
}

func (r StartPlaybackRequest) song() domain.Song {
	return domain.Song{
		ID:         r.SongID,
		Title:      r.Title,
		Artist:     r.Artist,
		DurationMs: r.DurationMs,
		IsOnline:   r.IsOnline,
		OnlineID:   r.OnlineID,
	}
}

// PlaybackProgressRequest is the request body for a playback position tick.
type PlaybackProgressRequest struct {
	PositionMs int64 `json:"position_ms" validate:"gte=0"`
	IsPlaying  bool  `json:"is_playing"`
}

// AcceptedResponse acknowledges a fire-and-forget playback command.
type AcceptedResponse struct {
	Status string `json:"status"`
}

// handleStartPlayback begins tracking a new listening session.
// POST /api/v1/playback/start
//
// Starting a new song ends any session still open for the user, so the
// client does not need to pair every start with an explicit end.
func (s *Server) handleStartPlayback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	var req StartPlaybackRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := service.ValidateStruct(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.tracker.Start(userID, req.song())
	response.JSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"}, s.logger)
}

// handlePlaybackProgress records a position tick for the open session.
// POST /api/v1/playback/progress
func (s *Server) handlePlaybackProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	var req PlaybackProgressRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := service.ValidateStruct(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.tracker.Progress(userID, req.PositionMs, req.IsPlaying)
	response.JSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"}, s.logger)
}

// handlePausePlayback pauses listening time accrual.
// POST /api/v1/playback/pause
func (s *Server) handlePausePlayback(w http.ResponseWriter, r *http.Request) {
	s.tracker.Pause(getUserID(r.Context()))
	response.JSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"}, s.logger)
}

// handleResumePlayback resumes listening time accrual after a pause.
// POST /api/v1/playback/resume
func (s *Server) handleResumePlayback(w http.ResponseWriter, r *http.Request) {
	s.tracker.Resume(getUserID(r.Context()))
	response.JSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"}, s.logger)
}

// handleEndPlayback closes the open session and waits for it to persist.
// POST /api/v1/playback/end
//
// Unlike the other playback endpoints this one blocks: when it returns,
// the session row is final and the month's summary has been recomputed.
func (s *Server) handleEndPlayback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	if err := s.tracker.End(ctx, userID); err != nil {
		s.logger.Error("Failed to end playback", "error", err, "user_id", userID)
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, AcceptedResponse{Status: "ended"}, s.logger)
}
