package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/teslashibe/go-fieldnav/pkg/goal"
)

// executorPoll is how often WaitForServer checks for the robot.
const executorPoll = 50 * time.Millisecond

// Executor submits goals to one robot over its websocket.
// The robot's goal server treats each goal as replacing the previous one.
type Executor struct {
	hub     *Hub
	robotID string
}

// Executor returns a goal.Executor bound to robotID.
func (h *Hub) Executor(robotID string) *Executor {
	return &Executor{hub: h, robotID: robotID}
}

// WaitForServer blocks until the robot is connected.
func (e *Executor) WaitForServer(ctx context.Context) error {
	ticker := time.NewTicker(executorPoll)
	defer ticker.Stop()

	for {
		if e.hub.GetRobot(e.robotID) != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: robot %q not connected", goal.ErrUpstreamUnavailable, e.robotID)
		case <-ticker.C:
		}
	}
}

// SendGoal implements goal.Executor.
func (e *Executor) SendGoal(ctx context.Context, g goal.Goal) error {
	if err := e.hub.SendGoal(e.robotID, g.Data()); err != nil {
		return fmt.Errorf("send goal %s: %w", g.ID, err)
	}
	return nil
}

// CancelGoal implements goal.Executor.
func (e *Executor) CancelGoal(ctx context.Context, id string) error {
	if err := e.hub.SendCancel(e.robotID, id); err != nil {
		return fmt.Errorf("cancel goal %s: %w", id, err)
	}
	return nil
}

var _ goal.Executor = (*Executor)(nil)
