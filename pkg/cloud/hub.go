// Package cloud provides the WebSocket hub robots connect to.
//
// A robot streams scan frames and goal feedback up, and receives goals and
// cancels down. The hub doubles as a goal.Executor for one robot ID.
package cloud

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-fieldnav/internal/log"
	"github.com/teslashibe/go-fieldnav/pkg/field"
	"github.com/teslashibe/go-fieldnav/pkg/protocol"
)

// RobotConnection represents a connected robot
type RobotConnection struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	// Last goal status reported by the robot
	GoalID     string
	GoalStatus string

	mu sync.Mutex
}

// Send sends a message to the robot
func (r *RobotConnection) Send(msg *protocol.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	return r.Conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages WebSocket connections from robots
type Hub struct {
	mu     sync.RWMutex
	robots map[string]*RobotConnection
	log    *slog.Logger

	// Callbacks
	onScan       func(robotID string, frame field.ScanFrame)
	onGoalStatus func(robotID string, status *protocol.GoalStatusData)

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	scansReceived    atomic.Uint64
	parseErrors      atomic.Uint64
}

// NewHub creates a new robot hub
func NewHub() *Hub {
	return &Hub{
		robots: make(map[string]*RobotConnection),
		log:    log.Component("cloud"),
	}
}

// OnScan sets the callback for incoming scan frames
func (h *Hub) OnScan(callback func(robotID string, frame field.ScanFrame)) {
	h.mu.Lock()
	h.onScan = callback
	h.mu.Unlock()
}

// OnGoalStatus sets the callback for goal feedback
func (h *Hub) OnGoalStatus(callback func(robotID string, status *protocol.GoalStatusData)) {
	h.mu.Lock()
	h.onGoalStatus = callback
	h.mu.Unlock()
}

// RegisterRoutes registers WebSocket routes on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/robot", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/robot", websocket.New(h.handleRobot))
	app.Get("/ws/robot/:id", websocket.New(h.handleRobot))
}

// handleRobot handles a robot WebSocket connection
func (h *Hub) handleRobot(c *websocket.Conn) {
	robotID := c.Params("id")
	if robotID == "" {
		robotID = generateRobotID()
	}

	robot := &RobotConnection{
		ID:        robotID,
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	h.mu.Lock()
	h.robots[robotID] = robot
	robotCount := len(h.robots)
	h.mu.Unlock()

	h.log.Info("robot connected", "robot", robotID, "robots", robotCount)

	defer func() {
		h.mu.Lock()
		// A reconnect may already have replaced this connection.
		if h.robots[robotID] == robot {
			delete(h.robots, robotID)
		}
		robotCount := len(h.robots)
		h.mu.Unlock()

		h.log.Info("robot disconnected", "robot", robotID, "robots", robotCount)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			h.log.Debug("robot read error", "robot", robotID, "error", err)
			return
		}

		robot.mu.Lock()
		robot.LastSeen = time.Now()
		robot.mu.Unlock()

		h.messagesReceived.Add(1)
		h.handleMessage(robot, data)
	}
}

// handleMessage processes an incoming message from a robot
func (h *Hub) handleMessage(robot *RobotConnection, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.parseErrors.Add(1)
		h.log.Warn("parse error", "robot", robot.ID, "error", err)
		return
	}

	h.mu.RLock()
	scanCb := h.onScan
	statusCb := h.onGoalStatus
	h.mu.RUnlock()

	switch msg.Type {
	case protocol.TypeScan:
		h.scansReceived.Add(1)
		scan, err := msg.GetScanData()
		if err != nil {
			h.parseErrors.Add(1)
			h.log.Warn("bad scan payload", "robot", robot.ID, "error", err)
			return
		}
		if scanCb != nil {
			scanCb(robot.ID, scan.Frame())
		}

	case protocol.TypeGoalStatus:
		status, err := msg.GetGoalStatusData()
		if err != nil {
			h.parseErrors.Add(1)
			return
		}
		robot.mu.Lock()
		robot.GoalID = status.ID
		robot.GoalStatus = status.Status
		robot.mu.Unlock()
		if statusCb != nil {
			statusCb(robot.ID, status)
		}

	case protocol.TypePing:
		var ping protocol.PingData
		if len(msg.Data) > 0 {
			if err := msg.ParseData(&ping); err != nil {
				h.parseErrors.Add(1)
				return
			}
		}
		if ping.Timestamp == 0 {
			ping.Timestamp = msg.Timestamp
		}
		h.SendPong(robot.ID, ping.ID, ping.Timestamp)
	}
}

// SendGoal sends a goal to a robot
func (h *Hub) SendGoal(robotID string, goal protocol.GoalData) error {
	msg, err := protocol.NewGoalMessage(goal)
	if err != nil {
		return err
	}
	return h.sendToRobot(robotID, msg)
}

// SendCancel cancels a goal on a robot
func (h *Hub) SendCancel(robotID, goalID string) error {
	msg, err := protocol.NewCancelMessage(goalID)
	if err != nil {
		return err
	}
	return h.sendToRobot(robotID, msg)
}

// SendPong answers ping id sent at pingTS
func (h *Hub) SendPong(robotID, id string, pingTS int64) error {
	msg, err := protocol.NewPongMessage(id, pingTS, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	return h.sendToRobot(robotID, msg)
}

// sendToRobot sends a message to a specific robot
func (h *Hub) sendToRobot(robotID string, msg *protocol.Message) error {
	h.mu.RLock()
	robot, ok := h.robots[robotID]
	h.mu.RUnlock()

	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "robot not connected")
	}

	h.messagesSent.Add(1)
	return robot.Send(msg)
}

// GetRobot returns a robot connection by ID
func (h *Hub) GetRobot(robotID string) *RobotConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.robots[robotID]
}

// RobotCount returns the number of connected robots
func (h *Hub) RobotCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.robots)
}

// Stats contains hub statistics
type Stats struct {
	RobotCount       int    `json:"robot_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	ScansReceived    uint64 `json:"scans_received"`
	ParseErrors      uint64 `json:"parse_errors"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		RobotCount:       h.RobotCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		ScansReceived:    h.scansReceived.Load(),
		ParseErrors:      h.parseErrors.Load(),
	}
}

// RobotInfo contains info about a connected robot
type RobotInfo struct {
	ID         string    `json:"id"`
	Connected  time.Time `json:"connected"`
	LastSeen   time.Time `json:"last_seen"`
	GoalID     string    `json:"goal_id,omitempty"`
	GoalStatus string    `json:"goal_status,omitempty"`
}

// GetRobotInfos returns info about all connected robots
func (h *Hub) GetRobotInfos() []RobotInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]RobotInfo, 0, len(h.robots))
	for _, r := range h.robots {
		r.mu.Lock()
		infos = append(infos, RobotInfo{
			ID:         r.ID,
			Connected:  r.Connected,
			LastSeen:   r.LastSeen,
			GoalID:     r.GoalID,
			GoalStatus: r.GoalStatus,
		})
		r.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes registers API routes for robot management
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	robots := api.Group("/robots")

	robots.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"robots": h.GetRobotInfos(),
			"count":  h.RobotCount(),
		})
	})

	robots.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})

	// Cancel the robot's current goal (or a specific one via {"id": ...})
	robots.Post("/:id/cancel", func(c *fiber.Ctx) error {
		var req protocol.CancelData
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
		}
		if err := h.SendCancel(c.Params("id"), req.ID); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "sent"})
	})
}

// generateRobotID generates a unique robot ID
func generateRobotID() string {
	return "robot-" + uuid.NewString()
}
