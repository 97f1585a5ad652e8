// Package api provides the HTTP API server and handlers for the Sound
// Capsule analytics service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/purrytify/soundcapsule/internal/http/response"
	"github.com/purrytify/soundcapsule/internal/ratelimit"
	"github.com/purrytify/soundcapsule/internal/service"
	"github.com/purrytify/soundcapsule/internal/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	tracker    *service.Tracker
	query      *service.QueryService
	exporter   *service.ExportService
	sseHandler *sse.Handler
	limiter    *ratelimit.KeyedRateLimiter
	router     *chi.Mux
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// limiter may be nil to disable per-user rate limiting.
func NewServer(tracker *service.Tracker, query *service.QueryService, exporter *service.ExportService, sseHandler *sse.Handler, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Server {
	s := &Server{
		tracker:    tracker,
		query:      query,
		exporter:   exporter,
		sseHandler: sseHandler,
		limiter:    limiter,
		router:     chi.NewRouter(),
		logger:     logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1. Everything below identifies the caller via X-User-ID.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireUser)
		r.Use(s.rateLimitByUser)

		// Playback lifecycle. The mobile player fires these as the user
		// listens.
		r.Route("/playback", func(r chi.Router) {
			r.Post("/start", s.handleStartPlayback)
			r.Post("/progress", s.handlePlaybackProgress)
			r.Post("/pause", s.handlePausePlayback)
			r.Post("/resume", s.handleResumePlayback)
			r.Post("/end", s.handleEndPlayback)
		})

		// Analytics reads.
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/current", s.handleGetCurrentMonth)
			r.Get("/monthly/{month}", s.handleGetMonthlyAnalytics)
			r.Get("/top-artists/{month}", s.handleGetTopArtists)
			r.Get("/top-songs/{month}", s.handleGetTopSongs)
			r.Get("/streaks", s.handleGetStreaks)
			r.Get("/months", s.handleGetAvailableMonths)
			r.Get("/export/{month}", s.handleExportMonth)
			r.Get("/stream", s.sseHandler.ServeHTTP)
		})
	})
}

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, HealthResponse{Status: "healthy"}, s.logger)
}
