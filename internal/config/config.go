// Package config loads go-fieldnav configuration.
//
// Precedence, lowest first: Default(), YAML file, environment, CLI flags.
// The result is treated as immutable once the controller starts.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-fieldnav/pkg/field"
)

// Executor kinds.
const (
	ExecutorRobot = "robot" // goals go to the robot over its websocket
	ExecutorHTTP  = "http"  // goals go to an HTTP goal server
)

// Gate kinds.
const (
	GatePermissive = "permissive"
	GateCorridor   = "corridor"
)

// Defaults for the non-field settings.
const (
	DefaultPort          = "8090"
	DefaultRobotID       = "kart"
	DefaultGoalServerURL = "http://localhost:8000"
	DefaultServerTimeout = 5 * time.Second
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config is the full process configuration.
type Config struct {
	Field field.Params `yaml:"field"`

	// Gate selects the safety policy: "permissive" or "corridor".
	Gate string `yaml:"gate"`

	// Debug enables marker publishing on /ws/markers.
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`

	Port          string        `yaml:"port"`
	Executor      string        `yaml:"executor"`
	RobotID       string        `yaml:"robot_id"`
	GoalServerURL string        `yaml:"goal_server_url"`
	ServerTimeout time.Duration `yaml:"server_timeout"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Field:         field.DefaultParams(),
		Gate:          GatePermissive,
		Debug:         false,
		LogLevel:      "info",
		Port:          DefaultPort,
		Executor:      ExecutorRobot,
		RobotID:       DefaultRobotID,
		GoalServerURL: DefaultGoalServerURL,
		ServerTimeout: DefaultServerTimeout,
	}
}

// Load reads a YAML file on top of Default and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FIELDNAV_* and GOAL_SERVER_URL.
func (c *Config) ApplyEnv() error {
	if err := envFloat("FIELDNAV_K", &c.Field.K); err != nil {
		return err
	}
	if err := envFloat("FIELDNAV_FORWARD_WEIGHT_D", &c.Field.ForwardWeightD); err != nil {
		return err
	}
	if err := envFloat("FIELDNAV_SAFETY_TOLERANCE", &c.Field.SafetyTolerance); err != nil {
		return err
	}
	if v := os.Getenv("FIELDNAV_UPDATE_RATE"); v != "" {
		d, err := ParseRate(v)
		if err != nil {
			return fmt.Errorf("FIELDNAV_UPDATE_RATE: %w", err)
		}
		c.Field.UpdateRate = d
	}
	if v := os.Getenv("GOAL_SERVER_URL"); v != "" {
		c.GoalServerURL = v
	}
	if v := os.Getenv("ROBOT_ID"); v != "" {
		c.RobotID = v
	}
	return nil
}

// Validate checks the constants and the selectors.
func (c Config) Validate() error {
	p := c.Field
	switch {
	case !(p.K > 0):
		return fmt.Errorf("%w: k must be > 0", ErrInvalid)
	case !(p.ForwardWeightD > 0):
		return fmt.Errorf("%w: forward_weight_d must be > 0", ErrInvalid)
	case p.SafetyTolerance < 0:
		return fmt.Errorf("%w: safety_tolerance must be >= 0", ErrInvalid)
	case p.UpdateRate <= 0:
		return fmt.Errorf("%w: update_rate must be > 0", ErrInvalid)
	case p.MaxMagnitude < 0:
		return fmt.Errorf("%w: max_magnitude must be >= 0", ErrInvalid)
	}
	switch c.Gate {
	case GatePermissive, GateCorridor:
	default:
		return fmt.Errorf("%w: unknown gate %q", ErrInvalid, c.Gate)
	}
	switch c.Executor {
	case ExecutorRobot, ExecutorHTTP:
	default:
		return fmt.Errorf("%w: unknown executor %q", ErrInvalid, c.Executor)
	}
	return nil
}

// ParseRate accepts a Go duration ("450ms") or plain seconds ("0.45").
func ParseRate(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse rate %q: %w", v, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}
