// Package sse implements Server-Sent Events for pushing live listening
// activity and analytics updates to connected clients.
package sse

import (
	"time"

	"github.com/purrytify/soundcapsule/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventSessionStarted fires when playback of a song begins.
	EventSessionStarted EventType = "session.started"
	// EventSessionUpdated fires when an open session's accumulated time is
	// persisted.
	EventSessionUpdated EventType = "session.updated"
	// EventSessionEnded fires when a session is closed.
	EventSessionEnded EventType = "session.ended"

	// EventStreakUpdated fires when a song's day streak changes.
	EventStreakUpdated EventType = "streak.updated"

	// EventAnalyticsUpdated fires when a monthly summary row is recomputed.
	EventAnalyticsUpdated EventType = "analytics.updated"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`

	// Filtering field for multi-user support. When set, the event is only
	// delivered to clients watching this user. Empty string means
	// "broadcast to all".
	UserID string `json:"-"`
}

// SessionEventData is the data payload for session events.
type SessionEventData struct {
	Session *domain.ListeningSession `json:"session"`
}

// StreakEventData is the data payload for streak events.
type StreakEventData struct {
	Streak *domain.SongStreak `json:"streak"`
}

// AnalyticsEventData is the data payload for analytics events.
type AnalyticsEventData struct {
	Analytics *domain.MonthlyAnalytics `json:"analytics"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewSessionEvent creates a session lifecycle event scoped to the session's
// user.
func NewSessionEvent(eventType EventType, session *domain.ListeningSession) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      SessionEventData{Session: session},
		UserID:    session.UserID,
	}
}

// NewStreakEvent creates a streak change event scoped to the streak's user.
func NewStreakEvent(streak *domain.SongStreak) Event {
	return Event{
		Type:      EventStreakUpdated,
		Timestamp: time.Now(),
		Data:      StreakEventData{Streak: streak},
		UserID:    streak.UserID,
	}
}

// NewAnalyticsEvent creates a monthly summary update event scoped to the
// summary's user.
func NewAnalyticsEvent(analytics *domain.MonthlyAnalytics) Event {
	return Event{
		Type:      EventAnalyticsUpdated,
		Timestamp: time.Now(),
		Data:      AnalyticsEventData{Analytics: analytics},
		UserID:    analytics.UserID,
	}
}

// NewHeartbeatEvent creates a keepalive event delivered to every client.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}
