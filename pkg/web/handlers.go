package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-fieldnav/pkg/field"
	"github.com/teslashibe/go-fieldnav/pkg/hub"
	"github.com/teslashibe/go-fieldnav/pkg/protocol"
)

// StatusResponse is returned by GET /api/status
type StatusResponse struct {
	Controller     any                `json:"controller"`
	LastGoal       *protocol.GoalData `json:"last_goal,omitempty"`
	Robots         any                `json:"robots,omitempty"`
	ScansSubmitted uint64             `json:"scans_submitted"`
	MarkerClients  int                `json:"marker_clients"`
	GoalClients    int                `json:"goal_clients"`
}

// handleStatus returns controller counters and the last goal
func (s *Server) handleStatus(c *fiber.Ctx) error {
	ctrl := s.controller()
	if ctrl == nil {
		return errNoController(c)
	}
	resp := StatusResponse{
		Controller:     ctrl.Stats(),
		ScansSubmitted: s.scans.Load(),
		MarkerClients:  s.markersHub.ClientCount(),
		GoalClients:    s.goalsHub.ClientCount(),
	}
	if g, ok := ctrl.LastGoal(); ok {
		data := g.Data()
		resp.LastGoal = &data
	}
	if s.robots != nil {
		resp.Robots = s.robots.GetStats()
	}
	return c.JSON(resp)
}

// handleConfig returns the active configuration
func (s *Server) handleConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"field":          s.cfg.Field,
		"update_rate_ms": s.cfg.Field.UpdateRate.Milliseconds(),
		"gate":           s.cfg.Gate,
		"debug":          s.cfg.Debug,
		"executor":       s.cfg.Executor,
		"robot_id":       s.cfg.RobotID,
	})
}

// handleScan accepts one scan frame and queues it for the controller
func (s *Server) handleScan(c *fiber.Ctx) error {
	ctrl := s.controller()
	if ctrl == nil {
		return errNoController(c)
	}

	var scan protocol.ScanData
	if err := c.BodyParser(&scan); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	frame := scan.Frame()
	if err := frame.Validate(); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, field.ErrMalformedFrame) {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ctrl.Submit(frame)
	s.scans.Add(1)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":  "queued",
		"samples": len(frame.Ranges),
	})
}

func errNoController(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "controller not attached",
	})
}

// handleHubWS attaches a dashboard websocket to h
func (s *Server) handleHubWS(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		hub.Serve(h, c)
	}
}
