package tui

import "github.com/charmbracelet/lipgloss"

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted    = ac("240", "243")
	colorAccent   = ac("#5A56E0", "#7571F9")
	colorSuccess  = ac("28", "42")
	colorError    = ac("160", "203")
	colorSelected = ac("#e9e9e9", "#262626")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	helpStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	successStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	doneStyle     = lipgloss.NewStyle().Foreground(colorMuted).Strikethrough(true)
	selectedStyle = lipgloss.NewStyle().Background(colorSelected)
	draggingStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	ghostStyle    = lipgloss.NewStyle().Foreground(colorAccent).Italic(true)
	lockedStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)
)

const (
	boxUnchecked = "☐"
	boxChecked   = "☑"
)
