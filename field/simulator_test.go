package field

import (
	"errors"
	"image"
	"math"
	"testing"
	"time"
)

// recordingSurface counts presented frames.
type recordingSurface struct {
	width, height int
	resizes       int
	presents      int
	err           error
}

func (r *recordingSurface) Resize(width, height int) error {
	r.width, r.height = width, height
	r.resizes++
	return nil
}

func (r *recordingSurface) Present(frame *image.RGBA) error {
	r.presents++
	return r.err
}

func fixedPath(p Point) AnimationFunc {
	return func(Point, int, int, Options) Point { return p }
}

func newTestSim(sched Scheduler, opts ...Option) *Simulator {
	return New(
		Configure(append([]Option{WithGrid(2, 2), WithSpacing(10), WithMargin(5), WithRadius(100)}, opts...)...),
		WithScheduler(sched),
		WithWorkers(1),
	)
}

func snapshot(s *Simulator) *Grid {
	var c *Grid
	s.View(func(g *Grid, _ *image.RGBA) { c = cloneGrid(g) })
	return c
}

func TestDefaultOptions(t *testing.T) {
	s := New(WithScheduler(NewFrameScheduler()))
	o := s.Options()

	if o.Rows != 100 || o.Cols != 240 || o.Spacing != 4 || o.Margin != 40 {
		t.Errorf("unexpected default shape %+v", o)
	}
	if o.Radius != 2500 {
		t.Errorf("expected radius 2500, got %f", o.Radius)
	}
	if !o.Mouse {
		t.Error("expected mouse enabled by default")
	}
	if o.Color != [4]uint8{0, 0, 0, 255} {
		t.Errorf("expected opaque black, got %v", o.Color)
	}
	if o.Animation != nil {
		t.Error("expected no custom animation by default")
	}
}

func TestDrawRequiresSurface(t *testing.T) {
	s := newTestSim(NewFrameScheduler())

	err := s.Draw(nil)
	if !errors.Is(err, ErrNoSurface) {
		t.Fatalf("expected ErrNoSurface, got %v", err)
	}
	if s.Running() {
		t.Error("expected simulator to stay stopped")
	}
	if w, h := s.SurfaceSize(); w != 0 || h != 0 {
		t.Errorf("expected no grid, got %dx%d", w, h)
	}
}

func TestDrawSizesSurfaceAndStarts(t *testing.T) {
	sched := NewFrameScheduler()
	s := newTestSim(sched, WithAnimation(fixedPath(Point{X: -1000, Y: -1000})))
	surf := &recordingSurface{}

	if err := s.Draw(surf); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	if surf.width != 30 || surf.height != 30 {
		t.Errorf("expected 30x30 surface, got %dx%d", surf.width, surf.height)
	}
	if !s.Running() {
		t.Error("expected simulator running after Draw")
	}
	if surf.presents != 1 || s.Ticks() != 1 {
		t.Errorf("expected one immediate tick, got %d presents, %d ticks", surf.presents, s.Ticks())
	}
	if !sched.Pending() {
		t.Error("expected next tick scheduled")
	}

	sched.Pump()
	sched.Pump()
	if surf.presents != 3 {
		t.Errorf("expected 3 presents after two pumps, got %d", surf.presents)
	}
}

func TestScenarioImpulseOnCoincidentParticle(t *testing.T) {
	sched := NewFrameScheduler()
	s := newTestSim(sched, WithAnimation(fixedPath(Point{X: 5, Y: 5})))

	if err := s.Draw(&recordingSurface{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	g := snapshot(s)
	if g.VX[0] == 0 && g.VY[0] == 0 {
		t.Error("expected particle 0 to receive an impulse")
	}
	for i := 1; i < 4; i++ {
		if g.VX[i] != 0 || g.VY[i] != 0 {
			t.Errorf("particle %d: expected no impulse, got (%f, %f)", i, g.VX[i], g.VY[i])
		}
	}
}

func TestStopThenStartResumes(t *testing.T) {
	sched := NewFrameScheduler()
	s := newTestSim(sched, WithAnimation(fixedPath(Point{X: 8, Y: 5})))

	if err := s.Draw(&recordingSurface{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	sched.Pump()
	sched.Pump()

	s.Stop()
	if s.Running() {
		t.Fatal("expected stopped")
	}
	if sched.Pending() {
		t.Error("expected pending tick cancelled by Stop")
	}
	if sched.Pump() {
		t.Error("expected no tick while stopped")
	}

	before := snapshot(s)
	if before.X[0] == float64(before.RestX[0]) {
		t.Fatal("expected particle 0 displaced before restart")
	}

	s.Start()

	// Start runs exactly one tick from the saved state.
	want := cloneGrid(before)
	want.Step(Point{X: 8, Y: 5}, 100)
	got := snapshot(s)
	for i := range want.X {
		if got.X[i] != want.X[i] || got.Y[i] != want.Y[i] || got.VX[i] != want.VX[i] || got.VY[i] != want.VY[i] {
			t.Fatalf("particle %d: state after restart does not continue from before Stop", i)
		}
	}
	if s.Ticks() != 4 {
		t.Errorf("expected 4 ticks, got %d", s.Ticks())
	}
	if !sched.Pending() {
		t.Error("expected loop rescheduled after Start")
	}
}

func TestStartWhileRunningKeepsSinglePendingTick(t *testing.T) {
	sched := NewFrameScheduler()
	s := newTestSim(sched)
	if err := s.Draw(&recordingSurface{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	s.Start()
	s.Start()

	if s.Ticks() != 3 {
		t.Fatalf("expected 3 ticks, got %d", s.Ticks())
	}
	sched.Pump()
	sched.Pump()
	if s.Ticks() != 5 {
		t.Errorf("expected one tick per pump, got %d ticks", s.Ticks())
	}
}

func TestManualModeIsPermanent(t *testing.T) {
	sched := NewFrameScheduler()
	calls := 0
	path := func(Point, int, int, Options) Point {
		calls++
		return Point{X: 100, Y: 100}
	}
	s := newTestSim(sched, WithAnimation(path))
	if err := s.Draw(&recordingSurface{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected path consulted once, got %d", calls)
	}

	s.Pointer(3, 4)
	if !s.Manual() {
		t.Fatal("expected manual mode after pointer input")
	}

	for i := 0; i < 5; i++ {
		sched.Pump()
	}
	if calls != 1 {
		t.Errorf("expected path ignored in manual mode, called %d times", calls)
	}
	if a := s.Attractor(); a != (Point{X: 3, Y: 4}) {
		t.Errorf("expected attractor at pointer, got %v", a)
	}

	// A new custom path does not leave manual mode either.
	s.SetCustomAnimation(fixedPath(Point{X: 50, Y: 50}))
	sched.Pump()
	if a := s.Attractor(); a != (Point{X: 3, Y: 4}) {
		t.Errorf("expected attractor to stay at pointer, got %v", a)
	}
}

func TestPointerIgnoredWhenMouseDisabled(t *testing.T) {
	s := newTestSim(NewFrameScheduler(), WithMouse(false))

	s.Pointer(1, 1)
	if s.Manual() {
		t.Error("expected pointer ignored while mouse disabled")
	}

	if !s.SetMouseState(true) || !s.MouseState() {
		t.Fatal("expected mouse enabled")
	}
	s.Pointer(1, 1)
	if !s.Manual() {
		t.Error("expected manual mode once mouse enabled")
	}
}

func TestSetOptionsMergesFields(t *testing.T) {
	s := newTestSim(NewFrameScheduler())

	s.SetOptions(WithColor(12, 34, 56, 78))
	o := s.Options()

	if o.Color != [4]uint8{12, 34, 56, 78} {
		t.Errorf("expected color round trip, got %v", o.Color)
	}
	if o.Rows != 2 || o.Cols != 2 || o.Spacing != 10 || o.Radius != 100 {
		t.Errorf("expected other fields untouched, got %+v", o)
	}
}

func TestShapeChangeAppliesOnRebuild(t *testing.T) {
	sched := NewFrameScheduler()
	s := newTestSim(sched)
	surf := &recordingSurface{}
	if err := s.Draw(surf); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	s.SetOptions(WithGrid(3, 4))
	sched.Pump()
	if g := snapshot(s); g.Len() != 4 {
		t.Fatalf("expected grid unchanged until rebuild, got %d particles", g.Len())
	}

	if err := s.Draw(surf); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	g := snapshot(s)
	if g.Len() != 12 {
		t.Errorf("expected 12 particles after rebuild, got %d", g.Len())
	}
	if surf.width != 50 || surf.height != 40 || surf.resizes != 2 {
		t.Errorf("expected surface resized to 50x40, got %dx%d after %d resizes", surf.width, surf.height, surf.resizes)
	}
}

func TestDefaultPathFollowsClock(t *testing.T) {
	now := time.Unix(2, 0)
	sched := NewFrameScheduler()
	s := New(
		Configure(WithGrid(2, 2), WithSpacing(10), WithMargin(5)),
		WithScheduler(sched),
		WithClock(func() time.Time { return now }),
	)
	if err := s.Draw(&recordingSurface{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	want := Lissajous(3.0, 30, 30)
	got := s.Attractor()
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
		t.Errorf("expected attractor %v, got %v", want, got)
	}

	s.ResetClock()
	sched.Pump()
	got = s.Attractor()
	if math.Abs(got.X-27) > 1e-9 || math.Abs(got.Y-15) > 1e-9 {
		t.Errorf("expected attractor at phase zero (27, 15), got %v", got)
	}
}

func TestCustomAnimationReceivesState(t *testing.T) {
	sched := NewFrameScheduler()
	var gotW, gotH int
	var gotOpts Options
	var prev []Point
	path := func(cur Point, w, h int, o Options) Point {
		gotW, gotH, gotOpts = w, h, o
		prev = append(prev, cur)
		return Point{X: cur.X + 1, Y: cur.Y + 2}
	}
	s := newTestSim(sched, WithAnimation(path))
	if err := s.Draw(&recordingSurface{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	sched.Pump()

	if gotW != 30 || gotH != 30 {
		t.Errorf("expected 30x30, got %dx%d", gotW, gotH)
	}
	if gotOpts.Radius != 100 {
		t.Errorf("expected options passed through, got %+v", gotOpts)
	}
	if len(prev) != 2 || prev[1] != (Point{X: 1, Y: 2}) {
		t.Errorf("expected previous attractor fed back, got %v", prev)
	}
}

func TestPresentErrorDoesNotStopLoop(t *testing.T) {
	sched := NewFrameScheduler()
	var seen []error
	s := New(
		Configure(WithGrid(2, 2), WithSpacing(10), WithMargin(5)),
		WithScheduler(sched),
		WithPresentErrorHandler(func(err error) { seen = append(seen, err) }),
	)
	surf := &recordingSurface{err: errors.New("device lost")}
	if err := s.Draw(surf); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	sched.Pump()

	if len(seen) != 2 {
		t.Errorf("expected 2 present errors, got %d", len(seen))
	}
	if !s.Running() || !sched.Pending() {
		t.Error("expected loop to keep running")
	}
}

func TestTickHookAndObserver(t *testing.T) {
	sched := NewFrameScheduler()
	obs := &phaseRecorder{}
	var infos []TickInfo
	s := New(
		Configure(WithGrid(2, 2), WithSpacing(10), WithMargin(5), WithAnimation(fixedPath(Point{X: 1, Y: 1}))),
		WithScheduler(sched),
		WithPhaseObserver(obs),
		WithTickHook(func(info TickInfo) { infos = append(infos, info) }),
	)
	if err := s.Draw(&recordingSurface{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	sched.Pump()

	if len(infos) != 2 || infos[1].Tick != 2 || infos[1].Attractor != (Point{X: 1, Y: 1}) {
		t.Errorf("unexpected tick infos %+v", infos)
	}
	want := []string{PhaseAttractor, PhasePhysics, PhaseRaster, PhasePresent}
	if obs.ticks != 2 || len(obs.phases) != 2*len(want) {
		t.Fatalf("expected 2 ticks with %d phases each, got %d ticks %v", len(want), obs.ticks, obs.phases)
	}
	for i, p := range want {
		if obs.phases[i] != p {
			t.Errorf("phase %d: expected %s, got %s", i, p, obs.phases[i])
		}
	}
}

func TestCloseStopsTicks(t *testing.T) {
	sched := NewFrameScheduler()
	s := New(
		Configure(WithGrid(2, 2), WithSpacing(10), WithMargin(5)),
		WithScheduler(sched),
		WithWorkers(2),
	)
	if err := s.Draw(&recordingSurface{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	s.Close()
	if err := s.Start(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from Start, got %v", err)
	}
	if err := s.Draw(&recordingSurface{}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from Draw, got %v", err)
	}

	if s.Ticks() != 1 {
		t.Errorf("expected no ticks after Close, got %d", s.Ticks())
	}
	if s.Running() {
		t.Error("expected closed simulator to report stopped")
	}
}

// startingScheduler lets another goroutine call Start while Stop is
// cancelling the pending tick.
type startingScheduler struct {
	*FrameScheduler
	sim  *Simulator
	done chan struct{}
}

func (c *startingScheduler) Cancel() {
	if c.sim != nil && c.done == nil {
		c.done = make(chan struct{})
		go func() {
			defer close(c.done)
			c.sim.Start()
		}()
		select {
		case <-c.done:
		case <-time.After(50 * time.Millisecond):
		}
	}
	c.FrameScheduler.Cancel()
}

func TestStartDuringStopKeepsLoopAlive(t *testing.T) {
	sched := &startingScheduler{FrameScheduler: NewFrameScheduler()}
	s := newTestSim(sched, WithAnimation(fixedPath(Point{X: 8, Y: 5})))
	if err := s.Draw(&recordingSurface{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	sched.sim = s
	s.Stop()
	<-sched.done

	if !s.Running() {
		t.Fatal("expected the concurrent Start to win")
	}
	if !sched.Pending() {
		t.Error("expected a tick scheduled while running")
	}
}

type nilSurface struct{}

func (*nilSurface) Resize(width, height int) error { return nil }

func (*nilSurface) Present(frame *image.RGBA) error { return nil }

func TestDrawRejectsTypedNilSurface(t *testing.T) {
	s := newTestSim(NewFrameScheduler())

	var surf *nilSurface
	if err := s.Draw(surf); !errors.Is(err, ErrNoSurface) {
		t.Fatalf("expected ErrNoSurface, got %v", err)
	}
	if s.Running() {
		t.Error("expected simulator to stay stopped")
	}
}

type phaseRecorder struct {
	ticks  int
	phases []string
}

func (p *phaseRecorder) StartTick() {}

func (p *phaseRecorder) StartPhase(ph string) { p.phases = append(p.phases, ph) }

func (p *phaseRecorder) EndTick() { p.ticks++ }
