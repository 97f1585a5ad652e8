package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/purrytify/soundcapsule/internal/clock"
	"github.com/purrytify/soundcapsule/internal/domain"
	"github.com/purrytify/soundcapsule/internal/sse"
	"github.com/purrytify/soundcapsule/internal/store"
)

// defaultTopLimit caps ranked listings when the caller does not ask for a
// specific size.
const defaultTopLimit = 10

// AnalyticsSubscriber hands out filtered event subscriptions. Satisfied by
// sse.Manager.
type AnalyticsSubscriber interface {
	Connect(userID string) (*sse.Client, error)
	Disconnect(clientID string)
}

// QueryService is the read side of the analytics engine. Reads degrade
// gracefully: failures are logged and callers get empty defaults, never an
// error that would blank a whole stats screen over one bad row.
type QueryService struct {
	store      store.Store
	subscriber AnalyticsSubscriber
	clock      clock.Clock
	logger     *slog.Logger
}

// NewQueryService creates a new query service.
func NewQueryService(st store.Store, subscriber AnalyticsSubscriber, clk clock.Clock, logger *slog.Logger) *QueryService {
	return &QueryService{
		store:      st,
		subscriber: subscriber,
		clock:      clk,
		logger:     logger,
	}
}

// CurrentMonth returns the current calendar month as yyyy-MM in the
// configured timezone.
func (s *QueryService) CurrentMonth() string {
	return clock.MonthKey(s.clock.Now().In(s.clock.Location()))
}

// GetMonthlyAnalytics returns the summary row for a (user, month), or a
// zeroed row if none exists yet.
func (s *QueryService) GetMonthlyAnalytics(ctx context.Context, userID, month string) *domain.MonthlyAnalytics {
	analytics, err := s.store.GetMonthlyAnalytics(ctx, domain.AnalyticsKey(userID, month))
	if errors.Is(err, store.ErrNotFound) {
		return emptyAnalytics(userID, month)
	}
	if err != nil {
		s.logger.Error("get monthly analytics failed",
			"user_id", userID, "month", month, "error", err)
		return emptyAnalytics(userID, month)
	}
	return analytics
}

// GetTopArtists returns up to limit artists for a (user, month), ranked by
// listening time.
func (s *QueryService) GetTopArtists(ctx context.Context, userID, month string, limit int) []*domain.ArtistStat {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	stats, err := s.store.TopArtists(ctx, userID, month, limit)
	if err != nil {
		s.logger.Error("get top artists failed",
			"user_id", userID, "month", month, "error", err)
		return []*domain.ArtistStat{}
	}
	return stats
}

// GetTopSongs returns up to limit songs for a (user, month), ranked by
// listening time.
func (s *QueryService) GetTopSongs(ctx context.Context, userID, month string, limit int) []*domain.SongStat {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	stats, err := s.store.TopSongs(ctx, userID, month, limit)
	if err != nil {
		s.logger.Error("get top songs failed",
			"user_id", userID, "month", month, "error", err)
		return []*domain.SongStat{}
	}
	return stats
}

// GetStreaks returns all of a user's streaks, longest first.
func (s *QueryService) GetStreaks(ctx context.Context, userID string) []*domain.SongStreak {
	streaks, err := s.store.GetStreaksForUser(ctx, userID)
	if err != nil {
		s.logger.Error("get streaks failed", "user_id", userID, "error", err)
		return []*domain.SongStreak{}
	}
	return streaks
}

// GetActiveStreaks returns the user's streaks of two or more days.
func (s *QueryService) GetActiveStreaks(ctx context.Context, userID string) []*domain.SongStreak {
	streaks := s.GetStreaks(ctx, userID)
	active := make([]*domain.SongStreak, 0, len(streaks))
	for _, streak := range streaks {
		if streak.IsActive() {
			active = append(active, streak)
		}
	}
	return active
}

// GetAvailableMonths returns the months with analytics data for a user,
// ascending.
func (s *QueryService) GetAvailableMonths(ctx context.Context, userID string) []string {
	months, err := s.store.GetAvailableMonths(ctx, userID)
	if err != nil {
		s.logger.Error("get available months failed", "user_id", userID, "error", err)
		return []string{}
	}
	if months == nil {
		months = []string{}
	}
	return months
}

// WatchCurrentMonthListeningTime returns a channel that carries the user's
// current-month total listening time: the value as of now, then a fresh
// value whenever the month's summary is recomputed. The channel closes when
// ctx is canceled or the event stream shuts down.
func (s *QueryService) WatchCurrentMonthListeningTime(ctx context.Context, userID string) (<-chan int64, error) {
	client, err := s.subscriber.Connect(userID)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	month := s.CurrentMonth()
	out := make(chan int64, 1)
	out <- s.GetMonthlyAnalytics(ctx, userID, month).TotalListeningTimeMs

	go func() {
		defer close(out)
		defer s.subscriber.Disconnect(client.ID)

		for {
			select {
			case event, ok := <-client.EventChan:
				if !ok {
					return
				}
				if event.Type != sse.EventAnalyticsUpdated {
					continue
				}
				data, ok := event.Data.(sse.AnalyticsEventData)
				if !ok || data.Analytics == nil || data.Analytics.Month != month {
					continue
				}
				select {
				case out <- data.Analytics.TotalListeningTimeMs:
				case <-ctx.Done():
					return
				}

			case <-client.Done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// FormatListeningTime renders a millisecond total the way the capsule UI
// shows it: "{h}h {m}m" when hours are present, "{m}m" when only minutes,
// and "< 1m" below a minute.
func FormatListeningTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalMinutes := ms / 60_000
	hours := totalMinutes / 60
	minutes := totalMinutes % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return "< 1m"
	}
}

func emptyAnalytics(userID, month string) *domain.MonthlyAnalytics {
	return &domain.MonthlyAnalytics{
		Key:    domain.AnalyticsKey(userID, month),
		UserID: userID,
		Month:  month,
	}
}
