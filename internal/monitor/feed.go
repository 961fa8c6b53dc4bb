package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-fieldnav/internal/httpc"
	"github.com/teslashibe/go-fieldnav/internal/log"
	"github.com/teslashibe/go-fieldnav/pkg/protocol"
)

// Dashboard websocket paths.
const (
	GoalsPath   = "/ws/goals"
	MarkersPath = "/ws/markers"
	StatusPath  = "/api/status"
)

const reconnectDelay = time.Second

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Feed streams dashboard websockets into a Bubble Tea program.
type Feed struct {
	BaseURL string // http(s)://host:port of the fieldnav dashboard
	Dialer  *websocket.Dialer
	log     *slog.Logger
}

// NewFeed creates a feed for the dashboard at baseURL.
func NewFeed(baseURL string) *Feed {
	return &Feed{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Dialer:  websocket.DefaultDialer,
		log:     log.Component("monitor"),
	}
}

// WSURL maps the dashboard base URL and path onto a websocket URL.
func (f *Feed) WSURL(path string) string {
	u := f.BaseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + path
}

// Start subscribes to goals and markers until ctx is done.
func (f *Feed) Start(ctx context.Context, s Sender) {
	go f.run(ctx, GoalsPath, s)
	go f.run(ctx, MarkersPath, s)
}

func (f *Feed) run(ctx context.Context, path string, s Sender) {
	for {
		err := f.stream(ctx, path, s)
		if ctx.Err() != nil {
			return
		}
		s.Send(FeedErrMsg{Err: err})

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// stream reads one websocket until it fails.
func (f *Feed) stream(ctx context.Context, path string, s Sender) error {
	url := f.WSURL(path)
	ws, _, err := f.Dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer ws.Close()

	stop := context.AfterFunc(ctx, func() { ws.Close() })
	defer stop()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if msg := decode(data); msg != nil {
			s.Send(msg)
		} else {
			f.log.Debug("ignoring message", "path", path, "bytes", len(data))
		}
	}
}

// decode turns a dashboard message into a tea.Msg, or nil.
func decode(data []byte) tea.Msg {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		return nil
	}
	switch msg.Type {
	case protocol.TypeGoal:
		g, err := msg.GetGoalData()
		if err != nil {
			return nil
		}
		return GoalMsg(*g)
	case protocol.TypeMarkers:
		m, err := msg.GetMarkersData()
		if err != nil {
			return nil
		}
		return MarkersMsg(m.Markers)
	}
	return nil
}

// pollStatus fetches /api/status once.
func pollStatus(baseURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		var st StatusMsg
		if err := httpc.GetJSON(ctx, nil, baseURL+StatusPath, &st); err != nil {
			return FeedErrMsg{Err: err}
		}
		return st
	}
}
