package nav

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-fieldnav/internal/log"
	"github.com/teslashibe/go-fieldnav/pkg/field"
	"github.com/teslashibe/go-fieldnav/pkg/goal"
)

const (
	waitTimeout = time.Second
	quietPeriod = 50 * time.Millisecond
)

// fakeClock only moves when Advance is called.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
	added   chan struct{}
}

type fakeWaiter struct {
	at time.Time
	ch chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0), added: make(chan struct{}, 16)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	ch := make(chan time.Time, 1)
	f.waiters = append(f.waiters, fakeWaiter{at: f.now.Add(d), ch: ch})
	f.mu.Unlock()
	f.added <- struct{}{}
	return ch
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	kept := f.waiters[:0]
	for _, w := range f.waiters {
		if !w.at.After(f.now) {
			w.ch <- f.now
			continue
		}
		kept = append(kept, w)
	}
	f.waiters = kept
}

// fakeExecutor records goals.
type fakeExecutor struct {
	sent     chan goal.Goal
	waitErr  error
	sendErr  error
	mu       sync.Mutex
	canceled []string
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{sent: make(chan goal.Goal, 16)}
}

func (e *fakeExecutor) WaitForServer(ctx context.Context) error { return e.waitErr }

func (e *fakeExecutor) SendGoal(ctx context.Context, g goal.Goal) error {
	if e.sendErr != nil {
		return e.sendErr
	}
	e.sent <- g
	return nil
}

func (e *fakeExecutor) CancelGoal(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.canceled = append(e.canceled, id)
	return nil
}

func frameWithRange(r float64) field.ScanFrame {
	return field.ScanFrame{
		AngleMin:       -math.Pi / 2,
		AngleMax:       math.Pi / 2,
		AngleIncrement: math.Pi / 4,
		Ranges:         []float64{math.Inf(1), math.Inf(1), math.Inf(1), r, math.Inf(1)},
	}
}

func newTestController(exec goal.Executor, clock Clock, opts Options) *Controller {
	opts.Clock = clock
	opts.Logger = log.Discard()
	return NewController(field.NewComputer(field.DefaultParams(), nil), exec, opts)
}

func waitGoal(t *testing.T, exec *fakeExecutor) goal.Goal {
	t.Helper()
	select {
	case g := <-exec.sent:
		return g
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for goal")
		return goal.Goal{}
	}
}

func assertNoGoal(t *testing.T, exec *fakeExecutor) {
	t.Helper()
	select {
	case g := <-exec.sent:
		t.Fatalf("unexpected goal %+v", g.Vector)
	case <-time.After(quietPeriod):
	}
}

func waitPaused(t *testing.T, clock *fakeClock) {
	t.Helper()
	select {
	case <-clock.added:
	case <-time.After(waitTimeout):
		t.Fatal("controller never paused")
	}
}

func startController(t *testing.T, c *Controller) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(waitTimeout):
			t.Error("controller did not stop within timeout")
		}
	}
}

func TestController_PacingLatestWins(t *testing.T) {
	exec := newFakeExecutor()
	clock := newFakeClock()
	c := newTestController(exec, clock, Options{})
	stop := startController(t, c)
	defer stop()

	c.Submit(frameWithRange(1.0))
	first := waitGoal(t, exec)
	waitPaused(t, clock)

	// Two frames inside the update window: only the newest survives.
	c.Submit(frameWithRange(2.0))
	c.Submit(frameWithRange(0.5))
	assertNoGoal(t, exec)
	assert.Equal(t, uint64(1), c.Stats().Dropped)

	clock.Advance(field.DefaultUpdateRate - time.Millisecond)
	assertNoGoal(t, exec)

	clock.Advance(time.Millisecond)
	second := waitGoal(t, exec)

	want, err := field.NewComputer(field.DefaultParams(), nil).Compute(frameWithRange(0.5))
	require.NoError(t, err)
	assert.Equal(t, want.Vector, second.Vector)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, clock.Now(), second.Stamp)

	stats := c.Stats()
	assert.Equal(t, uint64(3), stats.Received)
	assert.Equal(t, uint64(2), stats.Emitted)
}

func TestController_MalformedFrameSkipped(t *testing.T) {
	exec := newFakeExecutor()
	clock := newFakeClock()
	c := newTestController(exec, clock, Options{})
	stop := startController(t, c)
	defer stop()

	c.Submit(field.ScanFrame{AngleMin: 1, AngleMax: -1, AngleIncrement: 0.1, Ranges: []float64{1}})
	assertNoGoal(t, exec)

	// No pause after a skipped frame: the next one goes straight through.
	c.Submit(frameWithRange(1.0))
	waitGoal(t, exec)

	assert.Equal(t, uint64(1), c.Stats().Malformed)
}

func TestController_RejectedVectorEmitsNullGoal(t *testing.T) {
	exec := newFakeExecutor()
	clock := newFakeClock()
	reject := field.GateFunc(func(field.ScanFrame, field.Vector) bool { return false })
	c := NewController(field.NewComputer(field.DefaultParams(), reject), exec, Options{
		Clock:  clock,
		Logger: log.Discard(),
	})
	stop := startController(t, c)
	defer stop()

	c.Submit(frameWithRange(1.0))
	g := waitGoal(t, exec)

	assert.True(t, g.Vector.IsZero())
	assert.Equal(t, 1.0, g.Orientation.W)
	assert.Equal(t, uint64(1), c.Stats().Rejected)
}

func TestController_UpstreamUnavailable(t *testing.T) {
	exec := newFakeExecutor()
	exec.waitErr = goal.ErrUpstreamUnavailable
	clock := newFakeClock()
	c := newTestController(exec, clock, Options{ServerTimeout: 10 * time.Millisecond})
	stop := startController(t, c)
	defer stop()

	c.Submit(frameWithRange(1.0))
	assertNoGoal(t, exec)
	c.Submit(frameWithRange(1.0))
	assertNoGoal(t, exec)

	assert.Equal(t, uint64(2), c.Stats().Unavailable)
	_, ok := c.LastGoal()
	assert.False(t, ok)
}

func TestController_SendErrorDoesNotStopLoop(t *testing.T) {
	exec := newFakeExecutor()
	exec.sendErr = errors.New("connection reset")
	clock := newFakeClock()
	c := newTestController(exec, clock, Options{})
	stop := startController(t, c)
	defer stop()

	c.Submit(frameWithRange(1.0))
	c.Submit(frameWithRange(1.0))

	require.Eventually(t, func() bool { return c.Stats().SendErrors >= 1 }, waitTimeout, 5*time.Millisecond)
	assert.Equal(t, uint64(0), c.Stats().Emitted)
}

func TestController_CancelsLastGoalOnShutdown(t *testing.T) {
	exec := newFakeExecutor()
	clock := newFakeClock()
	c := newTestController(exec, clock, Options{})
	stop := startController(t, c)

	c.Submit(frameWithRange(1.0))
	g := waitGoal(t, exec)
	stop()

	exec.mu.Lock()
	defer exec.mu.Unlock()
	assert.Equal(t, []string{g.ID}, exec.canceled)
}

func TestController_SubmitNeverBlocks(t *testing.T) {
	c := newTestController(newFakeExecutor(), newFakeClock(), Options{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			c.Submit(frameWithRange(float64(i + 1)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("Submit blocked without a consumer")
	}

	stats := c.Stats()
	assert.Equal(t, uint64(100), stats.Received)
	assert.Equal(t, uint64(99), stats.Dropped)

	latest := <-c.mailbox
	assert.Equal(t, 100.0, latest.Ranges[3])
}

func TestController_ConcurrentSubmit(t *testing.T) {
	exec := newFakeExecutor()
	c := newTestController(exec, newFakeClock(), Options{})
	stop := startController(t, c)
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.Submit(frameWithRange(1.0))
			}
		}()
	}
	wg.Wait()

	// The loop is paused after the first goal, so nothing else is emitted.
	waitGoal(t, exec)
	assertNoGoal(t, exec)
	stats := c.Stats()
	assert.Equal(t, uint64(400), stats.Received)
	assert.Equal(t, stats.Received, stats.Dropped+stats.Processed+uint64(len(c.mailbox)))
}

type countingViz struct {
	mu    sync.Mutex
	calls int
}

func (v *countingViz) Visualize([]field.Sample, time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	return nil
}

func TestController_VisualizesAcceptedFrames(t *testing.T) {
	exec := newFakeExecutor()
	viz := &countingViz{}
	var hooked []goal.Goal
	var hookMu sync.Mutex
	c := newTestController(exec, newFakeClock(), Options{
		Visualizer: viz,
		OnGoal: func(g goal.Goal, _ field.Result) {
			hookMu.Lock()
			hooked = append(hooked, g)
			hookMu.Unlock()
		},
	})
	stop := startController(t, c)
	defer stop()

	c.Submit(frameWithRange(1.0))
	g := waitGoal(t, exec)

	require.Eventually(t, func() bool {
		viz.mu.Lock()
		defer viz.mu.Unlock()
		return viz.calls == 1
	}, waitTimeout, 5*time.Millisecond)

	hookMu.Lock()
	defer hookMu.Unlock()
	require.Len(t, hooked, 1)
	assert.Equal(t, g.ID, hooked[0].ID)
}
