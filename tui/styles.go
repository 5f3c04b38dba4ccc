// ABOUTME: Lipgloss styles for the render progress view.
// ABOUTME: StyleForStatus maps a BlockStatus to its display style.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	// Status colors
	PendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	RunningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	ReplacedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	UnchangedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	FailedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Secondary text such as output paths and durations
	DetailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	SummaryStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)

// StyleForStatus returns the lipgloss style for a BlockStatus.
func StyleForStatus(status BlockStatus) lipgloss.Style {
	switch status {
	case BlockRunning:
		return RunningStyle
	case BlockReplaced:
		return ReplacedStyle
	case BlockUnchanged:
		return UnchangedStyle
	case BlockFailed:
		return FailedStyle
	default:
		return PendingStyle
	}
}
