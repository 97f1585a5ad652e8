package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/purrytify/soundcapsule/internal/clock"
	"github.com/purrytify/soundcapsule/internal/domain"
	"github.com/purrytify/soundcapsule/internal/id"
	"github.com/purrytify/soundcapsule/internal/sse"
	"github.com/purrytify/soundcapsule/internal/store"
)

const (
	// maxTickGap is the anti-jump guard: a gap between progress ticks at or
	// above this signals a seek, a backgrounded app, or dropped callbacks.
	// That elapsed time must not count as listened time.
	maxTickGap = 5 * time.Second

	// persistInterval throttles session-row writes during steady playback.
	persistInterval = 10 * time.Second

	// boundaryWindow forces a persist when the playback position is within
	// this distance of a 30-second boundary.
	boundaryWindow = time.Second

	// trackerQueueSize bounds each user's command queue. Fire-and-forget
	// commands are dropped (with a log) when the queue is full.
	trackerQueueSize = 128
)

type trackerState int

const (
	stateIdle trackerState = iota
	stateActive
	statePaused
)

type commandKind int

const (
	cmdStart commandKind = iota
	cmdProgress
	cmdPause
	cmdResume
	cmdEnd
	cmdClose
)

// command is one tracker operation. The timestamp is captured at submission
// so accounting reflects when the caller observed the event, not when the
// actor got around to it.
type command struct {
	kind       commandKind
	at         time.Time
	song       domain.Song
	positionMs int64
	isPlaying  bool
	reply      chan error
}

// Tracker serializes playback accounting per user. Each user gets a
// dedicated actor goroutine with a FIFO command queue, so no two writes to
// the same session row race.
type Tracker struct {
	store      store.Store
	streaks    *StreakService
	aggregator *AggregatorService
	events     store.EventEmitter
	clock      clock.Clock
	logger     *slog.Logger

	mu       sync.Mutex
	users    map[string]*userTracker
	shutdown bool
}

// NewTracker creates a new playback tracker.
func NewTracker(st store.Store, streaks *StreakService, aggregator *AggregatorService, events store.EventEmitter, clk clock.Clock, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:      st,
		streaks:    streaks,
		aggregator: aggregator,
		events:     events,
		clock:      clk,
		logger:     logger,
		users:      make(map[string]*userTracker),
	}
}

// userTracker is the single-goroutine actor owning one user's session state.
type userTracker struct {
	parent *Tracker
	userID string
	queue  chan command
	done   chan struct{}

	// Actor-owned state. Only the run loop touches these.
	state         trackerState
	session       *domain.ListeningSession
	accumulatedMs int64
	lastUpdate    time.Time
	lastPersist   time.Time
}

// Start begins a new session for the user's song. If a session is already
// open it is ended first with full accounting, so switching songs never
// loses listened time. Fire-and-forget.
func (t *Tracker) Start(userID string, song domain.Song) {
	t.submit(userID, command{kind: cmdStart, at: t.clock.Now(), song: song})
}

// Progress reports the player's position. Only ticks while actively playing
// accumulate listened time. Fire-and-forget.
func (t *Tracker) Progress(userID string, positionMs int64, isPlaying bool) {
	t.submit(userID, command{kind: cmdProgress, at: t.clock.Now(), positionMs: positionMs, isPlaying: isPlaying})
}

// Pause flushes pending listened time and stops accumulation. Fire-and-forget.
func (t *Tracker) Pause(userID string) {
	t.submit(userID, command{kind: cmdPause, at: t.clock.Now()})
}

// Resume restarts accumulation. Paused wall-clock time is not credited.
// Fire-and-forget.
func (t *Tracker) Resume(userID string) {
	t.submit(userID, command{kind: cmdResume, at: t.clock.Now()})
}

// End closes the user's open session, persists the final accounting, and
// synchronously recomputes the month's summary. Blocks until the flush
// completes; logout and teardown depend on the final persisted state.
func (t *Tracker) End(ctx context.Context, userID string) error {
	return t.submitWait(ctx, userID, command{kind: cmdEnd, at: t.clock.Now()})
}

// CloseUser flushes and stops one user's actor, ending any open session
// with the same accounting as End. Blocks until done.
func (t *Tracker) CloseUser(ctx context.Context, userID string) error {
	t.mu.Lock()
	ut, ok := t.users[userID]
	if ok {
		delete(t.users, userID)
	}
	t.mu.Unlock()
	if !ok {
		return nil
	}
	return ut.close(ctx, t.clock.Now())
}

// Shutdown flushes and stops every actor. New commands are dropped once
// shutdown begins.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.shutdown = true
	users := make([]*userTracker, 0, len(t.users))
	for _, ut := range t.users {
		users = append(users, ut)
	}
	t.users = make(map[string]*userTracker)
	t.mu.Unlock()

	var firstErr error
	for _, ut := range users {
		if err := ut.close(ctx, t.clock.Now()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// submit enqueues a fire-and-forget command, dropping it if the user's
// queue is full.
func (t *Tracker) submit(userID string, cmd command) {
	ut := t.tracker(userID)
	if ut == nil {
		return
	}
	select {
	case ut.queue <- cmd:
	default:
		t.logger.Warn("tracker queue full, dropping command",
			slog.String("user_id", userID),
			slog.Int("kind", int(cmd.kind)))
	}
}

// submitWait enqueues a command and blocks until the actor has processed it.
func (t *Tracker) submitWait(ctx context.Context, userID string, cmd command) error {
	ut := t.tracker(userID)
	if ut == nil {
		return fmt.Errorf("tracker is shut down")
	}
	cmd.reply = make(chan error, 1)

	select {
	case ut.queue <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tracker returns the user's actor, spawning it on first use.
func (t *Tracker) tracker(userID string) *userTracker {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.shutdown {
		return nil
	}
	ut, ok := t.users[userID]
	if !ok {
		ut = &userTracker{
			parent: t,
			userID: userID,
			queue:  make(chan command, trackerQueueSize),
			done:   make(chan struct{}),
		}
		t.users[userID] = ut
		go ut.run()
	}
	return ut
}

// close asks the actor to flush and exit, then waits for it.
func (ut *userTracker) close(ctx context.Context, now time.Time) error {
	cmd := command{kind: cmdClose, at: now, reply: make(chan error, 1)}

	select {
	case ut.queue <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}

	var err error
	select {
	case err = <-cmd.reply:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ut.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

func (ut *userTracker) run() {
	defer close(ut.done)

	for cmd := range ut.queue {
		switch cmd.kind {
		case cmdStart:
			ut.handleStart(cmd)
		case cmdProgress:
			ut.handleProgress(cmd)
		case cmdPause:
			ut.handlePause(cmd)
		case cmdResume:
			ut.handleResume(cmd)
		case cmdEnd:
			cmd.reply <- ut.endSession(cmd.at)
		case cmdClose:
			cmd.reply <- ut.endSession(cmd.at)
			return
		}
	}
}

func (ut *userTracker) handleStart(cmd command) {
	p := ut.parent
	ctx := context.Background()

	// Switching songs ends the previous session first so its listened time
	// survives.
	if ut.state != stateIdle {
		if err := ut.endSession(cmd.at); err != nil {
			p.logger.Error("auto-end previous session failed",
				slog.String("user_id", ut.userID),
				slog.String("error", err.Error()))
		}
	}

	sessionID, err := id.Generate("ses")
	if err != nil {
		p.logger.Error("generate session ID failed",
			slog.String("user_id", ut.userID),
			slog.String("error", err.Error()))
		return
	}

	session := domain.NewListeningSession(sessionID, ut.userID, cmd.song, cmd.at.In(p.clock.Location()))
	if err := p.store.CreateSession(ctx, session); err != nil {
		p.logger.Error("create session failed",
			slog.String("user_id", ut.userID),
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		return
	}

	ut.state = stateActive
	ut.session = session
	ut.accumulatedMs = 0
	ut.lastUpdate = cmd.at
	ut.lastPersist = cmd.at

	p.events.Emit(sse.NewSessionEvent(sse.EventSessionStarted, session))

	// A play counts toward the streak the moment it starts.
	if _, err := p.streaks.RecordPlay(ctx, ut.userID, cmd.song, session.Date); err != nil {
		p.logger.Error("streak update failed",
			slog.String("user_id", ut.userID),
			slog.String("error", err.Error()))
	}

	p.logger.Debug("session started",
		slog.String("user_id", ut.userID),
		slog.String("session_id", sessionID),
		slog.String("song", cmd.song.Title))
}

func (ut *userTracker) handleProgress(cmd command) {
	if ut.state != stateActive || !cmd.isPlaying {
		return
	}

	delta := cmd.at.Sub(ut.lastUpdate)
	if delta > 0 && delta < maxTickGap {
		ut.accumulatedMs += delta.Milliseconds()
	}

	if cmd.at.Sub(ut.lastPersist) >= persistInterval || nearBoundary(cmd.positionMs) {
		ut.persist(cmd.at)
	}

	ut.lastUpdate = cmd.at
}

func (ut *userTracker) handlePause(cmd command) {
	if ut.state != stateActive {
		return
	}

	delta := cmd.at.Sub(ut.lastUpdate)
	if delta > 0 && delta < maxTickGap {
		ut.accumulatedMs += delta.Milliseconds()
	}
	ut.persist(cmd.at)

	ut.state = statePaused
	ut.lastUpdate = cmd.at
}

func (ut *userTracker) handleResume(cmd command) {
	if ut.state != statePaused {
		return
	}
	// Paused wall-clock time must not count as listened time.
	ut.state = stateActive
	ut.lastUpdate = cmd.at
}

// endSession flushes pending time, closes the row, and recomputes the
// month's summary. Idle is a no-op.
func (ut *userTracker) endSession(at time.Time) error {
	if ut.state == stateIdle {
		return nil
	}
	p := ut.parent
	ctx := context.Background()

	if ut.state == stateActive {
		delta := at.Sub(ut.lastUpdate)
		if delta > 0 && delta < maxTickGap {
			ut.accumulatedMs += delta.Milliseconds()
		}
	}

	session := ut.session
	session.DurationListenedMs = ut.accumulatedMs
	session.Close(at.In(p.clock.Location()))

	ut.state = stateIdle
	ut.session = nil
	ut.accumulatedMs = 0

	if err := p.store.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("persist final session: %w", err)
	}

	p.events.Emit(sse.NewSessionEvent(sse.EventSessionEnded, session))

	// The summary is keyed by the session's fixed month, not wall-clock now.
	if _, err := p.aggregator.RecomputeMonth(ctx, session.UserID, session.Month); err != nil {
		return fmt.Errorf("recompute month: %w", err)
	}

	p.logger.Debug("session ended",
		slog.String("user_id", session.UserID),
		slog.String("session_id", session.ID),
		slog.Int64("duration_listened_ms", session.DurationListenedMs))

	return nil
}

// persist writes the accumulated time to the open session row.
func (ut *userTracker) persist(at time.Time) {
	p := ut.parent
	session := ut.session
	session.DurationListenedMs = ut.accumulatedMs

	if err := p.store.UpdateSession(context.Background(), session); err != nil {
		p.logger.Error("persist session progress failed",
			slog.String("user_id", ut.userID),
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()))
		return
	}
	ut.lastPersist = at

	p.events.Emit(sse.NewSessionEvent(sse.EventSessionUpdated, session))
}

// nearBoundary reports whether the position is within boundaryWindow of a
// 30-second boundary.
func nearBoundary(positionMs int64) bool {
	if positionMs < 0 {
		return false
	}
	const boundary = 30_000
	rem := positionMs % boundary
	window := boundaryWindow.Milliseconds()
	return rem <= window || boundary-rem <= window
}
