// Package web serves the go-fieldnav status API and debug websockets.
package web

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-fieldnav/internal/config"
	"github.com/teslashibe/go-fieldnav/internal/log"
	"github.com/teslashibe/go-fieldnav/pkg/cloud"
	"github.com/teslashibe/go-fieldnav/pkg/field"
	"github.com/teslashibe/go-fieldnav/pkg/goal"
	"github.com/teslashibe/go-fieldnav/pkg/hub"
	"github.com/teslashibe/go-fieldnav/pkg/nav"
	"github.com/teslashibe/go-fieldnav/pkg/protocol"
)

// Controller is the part of nav.Controller the server drives.
type Controller interface {
	Submit(frame field.ScanFrame)
	Stats() nav.Stats
	LastGoal() (goal.Goal, bool)
}

// Server is the dashboard server
type Server struct {
	app  *fiber.App
	addr string
	cfg  config.Config
	log  *slog.Logger

	ctrl   atomic.Pointer[Controller]
	robots *cloud.Hub // nil when goals go over HTTP

	// Hubs for websocket broadcast
	markersHub *hub.Hub
	goalsHub   *hub.Hub

	scans atomic.Uint64
}

// NewServer creates the server and registers all routes.
// robots may be nil; its routes are then not mounted.
// Scan and status routes answer 503 until SetController is called.
func NewServer(cfg config.Config, robots *cloud.Hub) *Server {
	s := &Server{
		addr:       ":" + cfg.Port,
		cfg:        cfg,
		log:        log.Component("web"),
		robots:     robots,
		markersHub: hub.New("markers"),
		goalsHub:   hub.New("goals"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-fieldnav",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/config", s.handleConfig)
	api.Post("/scan", s.handleScan)
	if robots != nil {
		robots.RegisterAPIRoutes(api)
	}

	// Robot connections carry their own upgrade check
	if robots != nil {
		robots.RegisterRoutes(app)
	}

	dash := app.Group("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	dash.Get("/markers", websocket.New(s.handleHubWS(s.markersHub)))
	dash.Get("/goals", websocket.New(s.handleHubWS(s.goalsHub)))

	s.app = app
	return s
}

// SetController attaches the controller scans are submitted to.
func (s *Server) SetController(ctrl Controller) {
	s.ctrl.Store(&ctrl)
}

func (s *Server) controller() Controller {
	if p := s.ctrl.Load(); p != nil {
		return *p
	}
	return nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Markers is the hub debug markers are broadcast on.
func (s *Server) Markers() *hub.Hub {
	return s.markersHub
}

// Goals is the hub emitted goals are broadcast on.
func (s *Server) Goals() *hub.Hub {
	return s.goalsHub
}

// PublishGoal broadcasts an emitted goal to /ws/goals subscribers.
// Its signature matches nav.Options.OnGoal.
func (s *Server) PublishGoal(g goal.Goal, res field.Result) {
	msg, err := protocol.NewGoalMessage(g.Data())
	if err != nil {
		s.log.Debug("encode goal", "error", err)
		return
	}
	if err := s.goalsHub.BroadcastMessage(msg); err != nil {
		s.log.Debug("broadcast goal", "error", err)
	}
}

// Start runs the hubs and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	go s.markersHub.Run(ctx)
	go s.goalsHub.Run(ctx)

	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			s.log.Warn("shutdown", "error", err)
		}
	}()

	s.log.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}
