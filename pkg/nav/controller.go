// Package nav runs the scan-to-goal control loop.
//
// Frames are handed in with Submit from any goroutine and processed one at a
// time by Run. The mailbox holds a single frame: a newer frame replaces an
// unprocessed one. After every emitted goal the loop pauses for the update
// rate so goals are not replaced faster than the robot can act on them.
package nav

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-fieldnav/internal/log"
	"github.com/teslashibe/go-fieldnav/pkg/field"
	"github.com/teslashibe/go-fieldnav/pkg/goal"
)

// DefaultServerTimeout bounds the wait for the goal server per frame.
const DefaultServerTimeout = 5 * time.Second

// cancelTimeout bounds the best-effort cancel on shutdown.
const cancelTimeout = time.Second

// Visualizer receives per-sample contributions of accepted frames.
type Visualizer interface {
	Visualize(samples []field.Sample, stamp time.Time) error
}

// Options configures a Controller. Zero values pick defaults.
type Options struct {
	Clock         Clock
	Visualizer    Visualizer // nil disables marker publishing
	ServerTimeout time.Duration
	Logger        *slog.Logger

	// OnGoal is called after each goal is submitted.
	OnGoal func(g goal.Goal, res field.Result)
}

// Controller turns scan frames into paced goals.
type Controller struct {
	computer *field.Computer
	exec     goal.Executor
	clock    Clock
	viz      Visualizer
	onGoal   func(goal.Goal, field.Result)
	log      *slog.Logger

	pause         time.Duration
	serverTimeout time.Duration

	mu      sync.Mutex // serializes producers on the mailbox
	mailbox chan field.ScanFrame

	lastGoal atomic.Pointer[goal.Goal]

	// Diagnostics
	received    atomic.Uint64
	dropped     atomic.Uint64
	processed   atomic.Uint64
	malformed   atomic.Uint64
	rejected    atomic.Uint64
	unavailable atomic.Uint64
	sendErrors  atomic.Uint64
	emitted     atomic.Uint64
}

// NewController creates a controller pacing goals at computer.Params().UpdateRate.
func NewController(computer *field.Computer, exec goal.Executor, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.ServerTimeout <= 0 {
		opts.ServerTimeout = DefaultServerTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Component("nav")
	}
	return &Controller{
		computer:      computer,
		exec:          exec,
		clock:         opts.Clock,
		viz:           opts.Visualizer,
		onGoal:        opts.OnGoal,
		log:           opts.Logger,
		pause:         computer.Params().UpdateRate,
		serverTimeout: opts.ServerTimeout,
		mailbox:       make(chan field.ScanFrame, 1),
	}
}

// Submit queues a frame without blocking. An unprocessed older frame is dropped.
func (c *Controller) Submit(frame field.ScanFrame) {
	c.received.Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case c.mailbox <- frame:
		return
	default:
	}

	select {
	case <-c.mailbox:
		c.dropped.Add(1)
	default:
		// Run took it in the meantime.
	}
	c.mailbox <- frame
}

// Run processes frames until ctx is done. On exit the last goal is canceled.
func (c *Controller) Run(ctx context.Context) error {
	c.log.Info("controller started", "update_rate", c.pause, "server_timeout", c.serverTimeout)
	defer c.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-c.mailbox:
			if !c.process(ctx, frame) {
				continue
			}
			// Hold off the next goal; frames keep landing in the mailbox.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.clock.After(c.pause):
			}
		}
	}
}

// process runs one frame through compute, gate and submission.
// It reports whether a goal was emitted.
func (c *Controller) process(ctx context.Context, frame field.ScanFrame) bool {
	c.processed.Add(1)

	res, err := c.computer.Compute(frame)
	if err != nil {
		c.malformed.Add(1)
		c.log.Warn("skipping frame", "error", err, "samples", len(frame.Ranges))
		return false
	}
	if !res.Accepted {
		c.rejected.Add(1)
		c.log.Debug("vector rejected by safety gate, holding position")
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.serverTimeout)
	err = c.exec.WaitForServer(waitCtx)
	cancel()
	if err != nil {
		c.unavailable.Add(1)
		c.log.Warn("goal server not ready, skipping frame", "error", err)
		return false
	}

	g := goal.New(res.Vector, c.clock.Now())
	if err := c.exec.SendGoal(ctx, g); err != nil {
		c.sendErrors.Add(1)
		c.log.Warn("send goal failed", "goal", g.ID, "error", err)
		return false
	}
	c.lastGoal.Store(&g)
	c.emitted.Add(1)

	c.log.Debug("goal sent", "goal", g.ID, "x", g.Vector.X, "y", g.Vector.Y, "accepted", res.Accepted)

	if c.onGoal != nil {
		c.onGoal(g, res)
	}
	if c.viz != nil && res.Accepted {
		if err := c.viz.Visualize(res.Samples, g.Stamp); err != nil {
			c.log.Debug("visualize failed", "error", err)
		}
	}
	return true
}

// shutdown cancels the outstanding goal so the robot does not keep driving.
func (c *Controller) shutdown() {
	last := c.lastGoal.Load()
	if last == nil {
		c.log.Info("controller stopped")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	if err := c.exec.CancelGoal(ctx, last.ID); err != nil {
		c.log.Warn("cancel on shutdown failed", "goal", last.ID, "error", err)
	}
	c.log.Info("controller stopped", "emitted", c.emitted.Load(), "dropped", c.dropped.Load())
}

// LastGoal returns the most recently submitted goal, if any.
func (c *Controller) LastGoal() (goal.Goal, bool) {
	g := c.lastGoal.Load()
	if g == nil {
		return goal.Goal{}, false
	}
	return *g, true
}

// Stats are controller counters.
type Stats struct {
	Received    uint64 `json:"received"`
	Dropped     uint64 `json:"dropped"`
	Processed   uint64 `json:"processed"`
	Malformed   uint64 `json:"malformed"`
	Rejected    uint64 `json:"rejected"`
	Unavailable uint64 `json:"unavailable"`
	SendErrors  uint64 `json:"send_errors"`
	Emitted     uint64 `json:"emitted"`
}

// Stats returns a snapshot of the counters.
func (c *Controller) Stats() Stats {
	return Stats{
		Received:    c.received.Load(),
		Dropped:     c.dropped.Load(),
		Processed:   c.processed.Load(),
		Malformed:   c.malformed.Load(),
		Rejected:    c.rejected.Load(),
		Unavailable: c.unavailable.Load(),
		SendErrors:  c.sendErrors.Load(),
		Emitted:     c.emitted.Load(),
	}
}
