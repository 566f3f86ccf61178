// Package scheduler owns the restart countdowns. Each room gets at most
// one pending countdown, keyed by room id, cancellable at any point.
// Timer construction is injectable so tests drive countdowns without
// real clock ticks.
package scheduler

import (
	"sync"
	"time"

	"github.com/lryanle/bingobongo/internal/logger"
)

// Timer is the cancellable handle produced by the timer factory
type Timer interface {
	Stop() bool
}

// TimerFactory creates a timer that calls fn once after d
type TimerFactory func(d time.Duration, fn func()) Timer

type realTimer struct{ t *time.Timer }

func (r realTimer) Stop() bool { return r.t.Stop() }

func defaultFactory(d time.Duration, fn func()) Timer {
	return realTimer{t: time.AfterFunc(d, fn)}
}

type countdown struct {
	remaining int
	timer     Timer
	onTick    func(remaining int)
	onDone    func()
}

// Scheduler runs per-room countdowns
type Scheduler struct {
	log      logger.Logger
	mu       sync.Mutex
	pending  map[string]*countdown
	newTimer TimerFactory
}

// New creates a Scheduler backed by real timers
func New(log logger.Logger) *Scheduler {
	return &Scheduler{
		log:      log,
		pending:  make(map[string]*countdown),
		newTimer: defaultFactory,
	}
}

// NewWithFactory creates a Scheduler with a custom timer factory (tests)
func NewWithFactory(log logger.Logger, factory TimerFactory) *Scheduler {
	s := New(log)
	s.newTimer = factory
	return s
}

// Schedule starts a countdown of the given number of whole seconds for a
// room. onTick fires once per elapsed second with the seconds remaining;
// onDone fires when the countdown expires. Scheduling while a countdown
// is already pending for the room is a no-op and returns false.
func (s *Scheduler) Schedule(roomID string, seconds int, onTick func(remaining int), onDone func()) bool {
	if seconds < 1 {
		seconds = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pending[roomID]; exists {
		return false
	}

	c := &countdown{remaining: seconds, onTick: onTick, onDone: onDone}
	s.pending[roomID] = c
	c.timer = s.newTimer(time.Second, func() { s.step(roomID) })
	s.log.Debug("Countdown scheduled", "room", roomID, "seconds", seconds)
	return true
}

// step advances one countdown by a second, re-arming until it expires
func (s *Scheduler) step(roomID string) {
	s.mu.Lock()
	c, ok := s.pending[roomID]
	if !ok {
		// Cancelled between firing and acquiring the lock
		s.mu.Unlock()
		return
	}

	c.remaining--
	if c.remaining > 0 {
		c.timer = s.newTimer(time.Second, func() { s.step(roomID) })
		tick := c.onTick
		remaining := c.remaining
		s.mu.Unlock()
		if tick != nil {
			tick(remaining)
		}
		return
	}

	delete(s.pending, roomID)
	s.mu.Unlock()

	s.log.Debug("Countdown expired", "room", roomID)
	if c.onDone != nil {
		c.onDone()
	}
}

// Cancel stops a room's pending countdown. Returns whether one existed.
func (s *Scheduler) Cancel(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.pending[roomID]
	if !ok {
		return false
	}
	delete(s.pending, roomID)
	if c.timer != nil {
		c.timer.Stop()
	}
	s.log.Debug("Countdown cancelled", "room", roomID)
	return true
}

// Pending reports whether a room has a countdown in flight
func (s *Scheduler) Pending(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[roomID]
	return ok
}
