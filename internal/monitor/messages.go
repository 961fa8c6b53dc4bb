package monitor

import (
	"time"

	"github.com/teslashibe/go-fieldnav/pkg/nav"
	"github.com/teslashibe/go-fieldnav/pkg/protocol"
)

// TickMsg triggers a status poll.
type TickMsg time.Time

// GoalMsg carries a goal broadcast by the controller.
type GoalMsg protocol.GoalData

// MarkersMsg carries the latest per-sample markers.
type MarkersMsg []protocol.Marker

// StatusMsg is a polled /api/status snapshot.
type StatusMsg struct {
	Controller nav.Stats          `json:"controller"`
	LastGoal   *protocol.GoalData `json:"last_goal"`
}

// FeedErrMsg reports a lost or failed connection.
type FeedErrMsg struct {
	Err error
}
