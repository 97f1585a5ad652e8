package api

import (
	"context"
	"net/http"

	"github.com/purrytify/soundcapsule/internal/http/response"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeyUserID contextKey = "user_id"

// userIDHeader carries the caller's identity. The mobile app authenticates
// upstream; this service only needs to know who the listener is.
const userIDHeader = "X-User-ID"

// requireUser is middleware that extracts the user ID header and attaches
// it to the request context. Requests without an identity are rejected.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			response.Unauthorized(w, "Missing "+userIDHeader+" header", s.logger)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitByUser applies the per-user rate limit. Must be used after
// requireUser. Returns 429 when the user's budget is exhausted.
func (s *Server) rateLimitByUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		userID := getUserID(r.Context())
		if !s.limiter.Allow(userID) {
			s.logger.Warn("Rate limit exceeded",
				"user_id", userID,
				"path", r.URL.Path,
			)
			response.TooManyRequests(w, "Too many requests. Please try again later.", s.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getUserID extracts the user ID from request context.
// Returns empty string if not set.
func getUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(contextKeyUserID).(string); ok {
		return userID
	}
	return ""
}
