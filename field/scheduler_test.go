package field

import (
	"image"
	"sync/atomic"
	"testing"
	"time"
)

func TestFrameSchedulerPump(t *testing.T) {
	s := NewFrameScheduler()

	if s.Pump() {
		t.Error("expected nothing to run on an idle scheduler")
	}

	var a, b int
	s.Schedule(func() { a++ })
	s.Schedule(func() { b++ })
	if !s.Pump() {
		t.Fatal("expected pending callback to run")
	}
	if a != 0 || b != 1 {
		t.Errorf("expected only the latest callback to run, got a=%d b=%d", a, b)
	}
	if s.Pending() {
		t.Error("expected scheduler idle after pump")
	}
}

func TestFrameSchedulerRescheduleWaitsForNextPump(t *testing.T) {
	s := NewFrameScheduler()
	runs := 0
	var loop func()
	loop = func() {
		runs++
		s.Schedule(loop)
	}
	s.Schedule(loop)

	s.Pump()
	if runs != 1 {
		t.Fatalf("expected one run per pump, got %d", runs)
	}
	s.Cancel()
	if s.Pump() {
		t.Error("expected cancelled callback not to run")
	}
}

func TestTimerSchedulerRuns(t *testing.T) {
	s := NewTimerScheduler(time.Millisecond)
	done := make(chan struct{})

	s.Schedule(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer callback did not run")
	}
}

func TestTimerSchedulerCancel(t *testing.T) {
	s := NewTimerScheduler(5 * time.Millisecond)
	var runs atomic.Int32

	s.Schedule(func() { runs.Add(1) })
	s.Cancel()
	time.Sleep(30 * time.Millisecond)

	if runs.Load() != 0 {
		t.Errorf("expected cancelled callback not to run, ran %d times", runs.Load())
	}
}

func TestTimerSchedulerReplacesPending(t *testing.T) {
	s := NewTimerScheduler(5 * time.Millisecond)
	var first, second atomic.Int32

	s.Schedule(func() { first.Add(1) })
	s.Schedule(func() { second.Add(1) })
	time.Sleep(40 * time.Millisecond)

	if first.Load() != 0 || second.Load() != 1 {
		t.Errorf("expected only the replacement to run, got first=%d second=%d", first.Load(), second.Load())
	}
}

func TestTimerSchedulerDrivesSimulator(t *testing.T) {
	s := New(
		Configure(WithGrid(4, 4), WithSpacing(10), WithMargin(5)),
		WithScheduler(NewTimerScheduler(time.Millisecond)),
		WithWorkers(1),
	)
	surf := &countingSurface{}
	if err := s.Draw(surf); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.Ticks() < 5 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	s.Stop()
	if s.Ticks() < 5 {
		t.Fatalf("expected timer-driven ticks, got %d", s.Ticks())
	}

	// At most one tick was in flight when Stop ran.
	stopped := s.Ticks()
	time.Sleep(20 * time.Millisecond)
	if s.Ticks() > stopped+1 {
		t.Errorf("expected ticks to stop, went from %d to %d", stopped, s.Ticks())
	}
	s.Close()
}

// countingSurface is safe to present from the timer goroutine.
type countingSurface struct {
	presents atomic.Int64
}

func (c *countingSurface) Resize(int, int) error { return nil }

func (c *countingSurface) Present(*image.RGBA) error {
	c.presents.Add(1)
	return nil
}
