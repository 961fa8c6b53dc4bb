// Package goal turns field vectors into navigation goals and submits them to
// an external goal-execution service.
package goal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-fieldnav/pkg/field"
	"github.com/teslashibe/go-fieldnav/pkg/protocol"
)

// BaseFrame is the robot body frame all goals are expressed in.
const BaseFrame = "base_link"

// ErrUpstreamUnavailable means the goal-execution service is not ready.
var ErrUpstreamUnavailable = errors.New("goal server unavailable")

// Goal is a short-horizon target in the robot's local frame.
// A null vector is still a goal: stay where you are.
type Goal struct {
	ID          string
	FrameID     string
	Stamp       time.Time
	Vector      field.Vector
	Orientation protocol.Quaternion
}

// New builds a goal at v facing atan2(v.Y, v.X).
func New(v field.Vector, stamp time.Time) Goal {
	return Goal{
		ID:          uuid.NewString(),
		FrameID:     BaseFrame,
		Stamp:       stamp,
		Vector:      v,
		Orientation: protocol.QuaternionFromYaw(v.Heading()),
	}
}

// Data returns the wire form.
func (g Goal) Data() protocol.GoalData {
	return protocol.GoalData{
		ID:          g.ID,
		FrameID:     g.FrameID,
		Stamp:       g.Stamp.UnixMilli(),
		Position:    protocol.Point{X: g.Vector.X, Y: g.Vector.Y},
		Orientation: g.Orientation,
	}
}

// Executor is an external goal-execution service.
type Executor interface {
	// WaitForServer blocks until the service can accept goals or ctx ends.
	// It returns an error wrapping ErrUpstreamUnavailable on failure.
	WaitForServer(ctx context.Context) error

	// SendGoal submits g. A newer goal supersedes any outstanding one.
	SendGoal(ctx context.Context, g Goal) error

	// CancelGoal cancels the goal with the given ID.
	CancelGoal(ctx context.Context, id string) error
}
