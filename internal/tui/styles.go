package tui

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all views.
const (
	ColorOK      = lipgloss.Color("42")
	ColorWarning = lipgloss.Color("214")
	ColorError   = lipgloss.Color("196")
	ColorMuted   = lipgloss.Color("246")
	ColorHeader  = lipgloss.Color("39")
	ColorBorder  = lipgloss.Color("240")
)

// Status icons.
const (
	IconOK      = "✓"
	IconFailed  = "✗"
	IconAborted = "■"
)

//nolint:gochecknoglobals // Shared read-only styles.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorHeader)
	okStyle      = lipgloss.NewStyle().Foreground(ColorOK).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)
