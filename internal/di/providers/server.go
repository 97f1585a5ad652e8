package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/purrytify/soundcapsule/internal/api"
	"github.com/purrytify/soundcapsule/internal/config"
	"github.com/purrytify/soundcapsule/internal/logger"
	"github.com/purrytify/soundcapsule/internal/ratelimit"
	"github.com/purrytify/soundcapsule/internal/service"
	"github.com/purrytify/soundcapsule/internal/sse"
)

// RateLimiterHandle wraps the keyed rate limiter with shutdown capability.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRateLimiter provides the per-user request limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	limiter := ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	return &RateLimiterHandle{KeyedRateLimiter: limiter}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	trackerHandle := do.MustInvoke[*TrackerHandle](i)
	query := do.MustInvoke[*service.QueryService](i)
	exporter := do.MustInvoke[*service.ExportService](i)
	limiterHandle := do.MustInvoke[*RateLimiterHandle](i)

	// Stream subscribers are scoped to the identity header the rest of the
	// API uses.
	sseHandler := sse.NewHandler(sseHandle.Manager, func(r *http.Request) string {
		return r.Header.Get("X-User-ID")
	}, log.Logger)

	handler := api.NewServer(trackerHandle.Tracker, query, exporter, sseHandler, limiterHandle.KeyedRateLimiter, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
