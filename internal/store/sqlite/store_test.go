package sqlite

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/purrytify/soundcapsule/internal/domain"
)

// newTestStore opens a throwaway store that is closed when the test ends.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

// testSession builds a closed session with sensible defaults.
// start is parsed as RFC3339; date/month derive from it.
func testSession(t *testing.T, id, userID string, song domain.Song, start string, listenedMs int64) *domain.ListeningSession {
	t.Helper()

	startTime, err := time.Parse(time.RFC3339, start)
	if err != nil {
		t.Fatalf("parse start time %q: %v", start, err)
	}

	session := domain.NewListeningSession(id, userID, song, startTime)
	session.DurationListenedMs = listenedMs
	session.Close(startTime.Add(time.Duration(listenedMs) * time.Millisecond))
	return session
}
