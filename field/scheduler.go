package field

import (
	"sync"
	"time"
)

// Scheduler runs a callback at the next display refresh. At most one callback
// is pending; scheduling again replaces it.
type Scheduler interface {
	Schedule(fn func())
	Cancel()
}

// FrameScheduler holds the pending callback until the host loop calls Pump,
// once per displayed frame.
type FrameScheduler struct {
	mu      sync.Mutex
	pending func()
}

// NewFrameScheduler creates an idle frame scheduler.
func NewFrameScheduler() *FrameScheduler {
	return &FrameScheduler{}
}

// Schedule implements Scheduler.
func (s *FrameScheduler) Schedule(fn func()) {
	s.mu.Lock()
	s.pending = fn
	s.mu.Unlock()
}

// Cancel implements Scheduler.
func (s *FrameScheduler) Cancel() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

// Pending reports whether a callback is waiting for the next Pump.
func (s *FrameScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Pump runs the pending callback, if any. Callbacks scheduled while it runs
// wait for the next Pump. Reports whether a callback ran.
func (s *FrameScheduler) Pump() bool {
	s.mu.Lock()
	fn := s.pending
	s.pending = nil
	s.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// FallbackInterval is the refresh period used when no display callback exists.
const FallbackInterval = 16 * time.Millisecond

// TimerScheduler runs callbacks on their own goroutine after a fixed interval.
type TimerScheduler struct {
	interval time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewTimerScheduler creates a timer scheduler; interval <= 0 uses FallbackInterval.
func NewTimerScheduler(interval time.Duration) *TimerScheduler {
	if interval <= 0 {
		interval = FallbackInterval
	}
	return &TimerScheduler{interval: interval}
}

// Schedule implements Scheduler.
func (s *TimerScheduler) Schedule(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		stale := gen != s.gen
		if !stale {
			s.timer = nil
		}
		s.mu.Unlock()
		// A timer that fired while being replaced or cancelled must not run.
		if stale {
			return
		}
		fn()
	})
}

// Cancel implements Scheduler.
func (s *TimerScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}
