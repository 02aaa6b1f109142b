package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - ballpark
var (
	primaryColor   = lipgloss.Color("#E8C4A0") // infield dirt
	secondaryColor = lipgloss.Color("#7EBB81") // outfield grass
	accentColor    = lipgloss.Color("#A8C9A4")
	successColor   = lipgloss.Color("#B5D99C")
	mutedColor     = lipgloss.Color("#B8A890")
	fgColor        = lipgloss.Color("#F5F3ED") // chalk
	highlightColor = lipgloss.Color("#F0DEB4")
	homeColor      = lipgloss.Color("#7FB3E0")
	awayColor      = lipgloss.Color("#E0A07F")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(1, 2).
			Align(lipgloss.Center)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Italic(true).
			Align(lipgloss.Center)

	highlightStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	instructionStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true).
				Margin(1, 0)

	cursorStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	scoreboardStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(primaryColor).
			Padding(0, 2)

	gameBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)

	chatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)

	baseStyle = lipgloss.NewStyle().
			Foreground(fgColor)

	runnerStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	homeStyle = lipgloss.NewStyle().Foreground(homeColor).Bold(true)
	awayStyle = lipgloss.NewStyle().Foreground(awayColor).Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E07B7B")).
			Bold(true)
)
