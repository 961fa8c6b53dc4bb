// Package monitor is a terminal view of a running fieldnav dashboard: the
// latest obstacles, the current goal heading and the controller counters.
package monitor

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/teslashibe/go-fieldnav/pkg/nav"
	"github.com/teslashibe/go-fieldnav/pkg/protocol"
)

// Range limits for the plot, meters.
const (
	DefaultRange = 2.0
	MinRange     = 0.25
	MaxRange     = 16.0
)

// PollInterval is how often /api/status is fetched.
const PollInterval = time.Second

// Model is the root Bubble Tea model.
type Model struct {
	width  int
	height int

	baseURL  string
	maxRange float64

	online  bool
	lastErr error

	goal    *protocol.GoalData
	goals   int
	markers []protocol.Marker
	stats   nav.Stats
}

// New creates a model polling the dashboard at baseURL.
func New(baseURL string, maxRange float64) Model {
	if maxRange <= 0 {
		maxRange = DefaultRange
	}
	return Model{
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxRange: maxRange,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(pollStatus(m.baseURL), tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		return m, tea.Batch(pollStatus(m.baseURL), tickCmd())

	case StatusMsg:
		m.online = true
		m.lastErr = nil
		m.stats = msg.Controller
		if m.goal == nil && msg.LastGoal != nil {
			m.goal = msg.LastGoal
		}
		return m, nil

	case GoalMsg:
		g := protocol.GoalData(msg)
		m.goal = &g
		m.goals++
		return m, nil

	case MarkersMsg:
		m.markers = msg
		return m, nil

	case FeedErrMsg:
		m.online = false
		m.lastErr = msg.Err
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "+", "=":
		m.maxRange = math.Max(MinRange, m.maxRange/2)

	case "-", "_":
		m.maxRange = math.Min(MaxRange, m.maxRange*2)

	case "c":
		m.markers = nil
	}
	return m, nil
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Connecting to fieldnav..."
	}

	title := StyleTitle.Width(m.width).Render(fmt.Sprintf("fieldnav monitor  %s  [+/-] zoom  [c] clear  [q] quit", m.baseURL))

	bodyH := m.height - 2
	if bodyH < 5 {
		bodyH = 5
	}
	sideW := 30
	plotW := m.width - sideW
	if plotW < 20 {
		plotW = 20
	}

	innerW, innerH := plotW-2, bodyH-2
	if innerW < 3 {
		innerW = 3
	}
	if innerH < 3 {
		innerH = 3
	}
	field := StylePanel.Render(Plot(innerW, innerH, m.markers, m.goal, m.maxRange))
	side := StylePanel.Width(sideW - 2).Height(innerH).Render(m.renderStats())

	body := lipgloss.JoinHorizontal(lipgloss.Top, field, side)
	return lipgloss.JoinVertical(lipgloss.Left, title, body, m.renderStatusBar())
}

func (m Model) renderStats() string {
	row := func(label string, v any) string {
		return StyleLabel.Render(fmt.Sprintf("%-12s", label)) + StyleValue.Render(fmt.Sprint(v))
	}
	lines := []string{
		row("received", m.stats.Received),
		row("dropped", m.stats.Dropped),
		row("processed", m.stats.Processed),
		row("emitted", m.stats.Emitted),
		row("rejected", m.stats.Rejected),
		row("malformed", m.stats.Malformed),
		row("unavailable", m.stats.Unavailable),
		row("send errors", m.stats.SendErrors),
		"",
		row("goals seen", m.goals),
		row("markers", len(m.markers)),
	}
	if m.goal != nil {
		p := m.goal.Position
		lines = append(lines, "",
			row("goal x", fmt.Sprintf("%.4f", p.X)),
			row("goal y", fmt.Sprintf("%.4f", p.Y)),
			row("heading", fmt.Sprintf("%.1fdeg", math.Atan2(p.Y, p.X)*180/math.Pi)),
		)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStatusBar() string {
	status := StyleOnline.Render("[ONLINE]")
	if !m.online {
		status = StyleOffline.Render("[OFFLINE]")
	}
	info := fmt.Sprintf(" range 0-%.2fm", m.maxRange)
	if m.lastErr != nil {
		info += "  " + m.lastErr.Error()
	}
	return StyleStatusBar.Width(m.width).Render(status + info)
}

func tickCmd() tea.Cmd {
	return tea.Tick(PollInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
