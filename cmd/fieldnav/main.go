// Command fieldnav runs the potential-field local navigation controller.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-fieldnav/internal/config"
	"github.com/teslashibe/go-fieldnav/internal/log"
	"github.com/teslashibe/go-fieldnav/internal/monitor"
	"github.com/teslashibe/go-fieldnav/pkg/cloud"
	"github.com/teslashibe/go-fieldnav/pkg/field"
	"github.com/teslashibe/go-fieldnav/pkg/goal"
	"github.com/teslashibe/go-fieldnav/pkg/nav"
	"github.com/teslashibe/go-fieldnav/pkg/protocol"
	"github.com/teslashibe/go-fieldnav/pkg/viz"
	"github.com/teslashibe/go-fieldnav/pkg/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fieldnav",
		Short:         "Reactive potential-field navigation from planar range scans",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          run,
	}

	f := cmd.Flags()
	f.String("config", "", "YAML config file")
	f.Float64("k", field.DefaultK, "field gain K")
	f.Float64("forward-weight-d", field.DefaultForwardWeightD, "virtual distance of the forward bias")
	f.Float64("safety-tolerance", field.DefaultSafetyTolerance, "corridor half-width in meters")
	f.String("update-rate", field.DefaultUpdateRate.String(), "minimum spacing between goals (duration or seconds)")
	f.Float64("max-magnitude", 0, "per-sample repulsion ceiling (0 derives it from k)")
	f.String("gate", config.GatePermissive, "safety gate: permissive or corridor")
	f.Bool("debug", false, "publish per-sample markers on /ws/markers")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.String("port", config.DefaultPort, "dashboard and robot websocket port")
	f.String("executor", config.ExecutorRobot, "goal executor: robot or http")
	f.String("robot-id", config.DefaultRobotID, "robot whose scans are used and that receives goals (executor=robot)")
	f.String("goal-server", config.DefaultGoalServerURL, "goal server base URL (executor=http)")
	f.Duration("server-timeout", config.DefaultServerTimeout, "how long to wait for the goal server per frame")

	cmd.AddCommand(newWatchCmd())
	return cmd
}

func newWatchCmd() *cobra.Command {
	var (
		url      string
		maxRange float64
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Terminal view of a running fieldnav: obstacles, goal heading and counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(url, maxRange)
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:"+config.DefaultPort, "fieldnav dashboard URL")
	cmd.Flags().Float64Var(&maxRange, "range", monitor.DefaultRange, "plot range in meters")
	return cmd
}

func watch(url string, maxRange float64) error {
	// Logs would tear the alternate screen.
	log.Init("error")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(monitor.New(url, maxRange), tea.WithAltScreen(), tea.WithFPS(30))
	monitor.NewFeed(url).Start(ctx, p)

	_, err := p.Run()
	return err
}

// loadConfig builds the config from file, environment and explicitly set flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	f := cmd.Flags()

	path, _ := f.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if f.Changed("k") {
		cfg.Field.K, _ = f.GetFloat64("k")
	}
	if f.Changed("forward-weight-d") {
		cfg.Field.ForwardWeightD, _ = f.GetFloat64("forward-weight-d")
	}
	if f.Changed("safety-tolerance") {
		cfg.Field.SafetyTolerance, _ = f.GetFloat64("safety-tolerance")
	}
	if f.Changed("update-rate") {
		v, _ := f.GetString("update-rate")
		d, err := config.ParseRate(v)
		if err != nil {
			return cfg, fmt.Errorf("--update-rate: %w", err)
		}
		cfg.Field.UpdateRate = d
	}
	if f.Changed("max-magnitude") {
		cfg.Field.MaxMagnitude, _ = f.GetFloat64("max-magnitude")
	}
	if f.Changed("gate") {
		cfg.Gate, _ = f.GetString("gate")
	}
	if f.Changed("debug") {
		cfg.Debug, _ = f.GetBool("debug")
	}
	if f.Changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
	if f.Changed("port") {
		cfg.Port, _ = f.GetString("port")
	}
	if f.Changed("executor") {
		cfg.Executor, _ = f.GetString("executor")
	}
	if f.Changed("robot-id") {
		cfg.RobotID, _ = f.GetString("robot-id")
	}
	if f.Changed("goal-server") {
		cfg.GoalServerURL, _ = f.GetString("goal-server")
	}
	if f.Changed("server-timeout") {
		cfg.ServerTimeout, _ = f.GetDuration("server-timeout")
	}

	return cfg, cfg.Validate()
}

func newGate(cfg config.Config) field.Gate {
	if cfg.Gate == config.GateCorridor {
		return field.CorridorGate{Tolerance: cfg.Field.SafetyTolerance}
	}
	return field.PermissiveGate{}
}

// scanSource passes on scans from robotID only. Other robots on the hub may
// stream scans but never steer the controller.
func scanSource(robotID string, submit func(field.ScanFrame), logger *slog.Logger) func(string, field.ScanFrame) {
	return func(id string, frame field.ScanFrame) {
		if id != robotID {
			logger.Debug("ignoring scan from other robot", "robot", id, "want", robotID)
			return
		}
		submit(frame)
	}
}

// goalStatusLogger reports goal feedback from robots.
func goalStatusLogger(logger *slog.Logger) func(string, *protocol.GoalStatusData) {
	return func(robotID string, st *protocol.GoalStatusData) {
		args := []any{"robot", robotID, "goal", st.ID, "status", st.Status}
		if st.Text != "" {
			args = append(args, "text", st.Text)
		}
		switch st.Status {
		case protocol.GoalAborted, protocol.GoalRejected:
			logger.Warn("goal failed", args...)
		case protocol.GoalActive:
			logger.Debug("goal status", args...)
		default:
			logger.Info("goal status", args...)
		}
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log.Init(cfg.LogLevel)
	log.Info("fieldnav starting",
		"k", cfg.Field.K,
		"forward_weight_d", cfg.Field.ForwardWeightD,
		"safety_tolerance", cfg.Field.SafetyTolerance,
		"update_rate", cfg.Field.UpdateRate,
		"gate", cfg.Gate,
		"executor", cfg.Executor,
		"debug", cfg.Debug,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	robots := cloud.NewHub()

	var exec goal.Executor
	switch cfg.Executor {
	case config.ExecutorHTTP:
		exec = goal.NewHTTPExecutor(cfg.GoalServerURL)
	default:
		exec = robots.Executor(cfg.RobotID)
	}

	computer := field.NewComputer(cfg.Field, newGate(cfg))

	server := web.NewServer(cfg, robots)

	opts := nav.Options{
		ServerTimeout: cfg.ServerTimeout,
		OnGoal:        server.PublishGoal,
	}
	if cfg.Debug {
		opts.Visualizer = viz.NewPublisher(server.Markers(), cfg.Field.UpdateRate)
	}
	ctrl := nav.NewController(computer, exec, opts)
	server.SetController(ctrl)

	robots.OnScan(scanSource(cfg.RobotID, ctrl.Submit, log.Component("cloud")))
	robots.OnGoalStatus(goalStatusLogger(log.Component("nav")))

	errc := make(chan error, 2)
	go func() { errc <- server.Start(ctx) }()
	go func() { errc <- ctrl.Run(ctx) }()

	err = <-errc
	stop()
	if err2 := <-errc; err == nil || errors.Is(err, context.Canceled) {
		err = err2
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	log.Info("fieldnav stopped")
	return err
}
