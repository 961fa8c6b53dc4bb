package goal

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-fieldnav/internal/httpc"
	"github.com/teslashibe/go-fieldnav/pkg/protocol"
)

// HTTP goal server API.
const (
	StatusPath = "/api/status"
	GoalPath   = "/api/goal"
	CancelPath = "/api/goal/cancel"

	// StateReady is the status a goal server reports when it accepts goals.
	StateReady = "ready"
)

// DefaultPollInterval is how often WaitForServer re-checks readiness.
const DefaultPollInterval = 100 * time.Millisecond

// ServerStatus is the body of GET /api/status.
type ServerStatus struct {
	State string `json:"state"`
}

// HTTPExecutor implements Executor against an HTTP goal server.
type HTTPExecutor struct {
	BaseURL      string
	PollInterval time.Duration

	client *http.Client
}

// NewHTTPExecutor creates an executor for baseURL (e.g. "http://kart:8000").
func NewHTTPExecutor(baseURL string) *HTTPExecutor {
	return &HTTPExecutor{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		PollInterval: DefaultPollInterval,
		client:       httpc.NewClient(2 * time.Second),
	}
}

// Status queries the goal server state.
func (e *HTTPExecutor) Status(ctx context.Context) (string, error) {
	var status ServerStatus
	if err := httpc.GetJSON(ctx, e.client, e.BaseURL+StatusPath, &status); err != nil {
		return "", fmt.Errorf("goal server status request failed: %w", err)
	}
	return status.State, nil
}

// WaitForServer polls Status until it reports ready.
func (e *HTTPExecutor) WaitForServer(ctx context.Context) error {
	ticker := time.NewTicker(e.PollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		state, err := e.Status(ctx)
		if err == nil && state == StateReady {
			return nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("state %q", state)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
		case <-ticker.C:
		}
	}
}

// SendGoal posts the goal. The server preempts its previous goal.
func (e *HTTPExecutor) SendGoal(ctx context.Context, g Goal) error {
	if err := httpc.PostJSON(ctx, e.client, e.BaseURL+GoalPath, g.Data()); err != nil {
		return fmt.Errorf("send goal %s: %w", g.ID, err)
	}
	return nil
}

// CancelGoal asks the server to cancel a goal.
func (e *HTTPExecutor) CancelGoal(ctx context.Context, id string) error {
	if err := httpc.PostJSON(ctx, e.client, e.BaseURL+CancelPath, protocol.CancelData{ID: id}); err != nil {
		return fmt.Errorf("cancel goal %s: %w", id, err)
	}
	return nil
}

// Ensure HTTPExecutor implements Executor
var _ Executor = (*HTTPExecutor)(nil)
