package monitor

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorTeal     = lipgloss.Color("#008080")
	ColorBright   = lipgloss.Color("#00FFCC")
	ColorDim      = lipgloss.Color("#005555")
	ColorObstacle = lipgloss.Color("#FFAA00")
	ColorError    = lipgloss.Color("#FF3300")
)

var (
	StyleTitle = lipgloss.NewStyle().
			Background(lipgloss.Color("#002222")).
			Foreground(ColorBright).
			Bold(true).
			Padding(0, 1)

	StylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorTeal)

	StyleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#002222")).
			Foreground(ColorTeal).
			Padding(0, 1)

	StyleOnline = lipgloss.NewStyle().
			Foreground(ColorBright).
			Bold(true)

	StyleOffline = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorDim)

	StyleValue = lipgloss.NewStyle().
			Foreground(ColorBright)
)
