package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	// UI colors
	headerBg   = lipgloss.Color("235")
	statusBg   = lipgloss.Color("236")
	helpBg     = lipgloss.Color("234")
	errorColor = lipgloss.Color("9")
	dimColor   = lipgloss.Color("8")
	newerColor = lipgloss.Color("11")

	// Level colors for log lines
	levelColorList = map[string]lipgloss.Color{
		"trace":   lipgloss.Color("8"),
		"debug":   lipgloss.Color("14"), // Cyan
		"info":    lipgloss.Color("10"), // Green
		"warn":    lipgloss.Color("11"), // Yellow
		"warning": lipgloss.Color("11"),
		"error":   lipgloss.Color("9"), // Red
		"fatal":   lipgloss.Color("13"), // Magenta
		"panic":   lipgloss.Color("13"),
	}
)

// Styles
var (
	// Header style
	headerStyle = lipgloss.NewStyle().
			Background(headerBg).
			Padding(0, 1).
			MarginBottom(1)

	// Status bar style
	statusStyle = lipgloss.NewStyle().
			Background(statusBg).
			Padding(0, 1)

	// Help overlay style
	helpStyle = lipgloss.NewStyle().
			Background(helpBg).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	// Error indicator style
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(errorColor).
			Bold(true)

	// Static mode indicator for matches past the window
	newerStyle = lipgloss.NewStyle().
			Foreground(newerColor).
			Bold(true)

	// Dim style for positions and extra fields
	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	defaultLevelStyle = lipgloss.NewStyle()

	// Level styles for log lines
	levelStyles map[string]lipgloss.Style
)

func init() {
	levelStyles = make(map[string]lipgloss.Style, len(levelColorList))
	for level, color := range levelColorList {
		levelStyles[level] = lipgloss.NewStyle().Foreground(color).Bold(true)
	}
}

// levelStyle returns the style for a log level, case-insensitively
func levelStyle(level string) lipgloss.Style {
	if s, ok := levelStyles[strings.ToLower(level)]; ok {
		return s
	}
	return defaultLevelStyle
}
