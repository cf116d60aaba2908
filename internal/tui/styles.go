// Package tui provides the Bubble Tea run view for troupe.
package tui

import "github.com/charmbracelet/lipgloss"

// Monokai Pro color palette
var (
	colorForeground = lipgloss.Color("#fcfcfa")
	colorYellow     = lipgloss.Color("#ffd866")
	colorOrange     = lipgloss.Color("#fc9867")
	colorRed        = lipgloss.Color("#ff6188")
	colorMagenta    = lipgloss.Color("#ab9df2")
	colorGreen      = lipgloss.Color("#a9dc76")
	colorCyan       = lipgloss.Color("#78dce8")
	colorGray       = lipgloss.Color("#727072")
	colorDimGray    = lipgloss.Color("#5b595c")
)

// Panel styles
var (
	// headerStyle is used for the header panel border
	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorDimGray).
			Padding(0, 1)

	// headerLabelStyle is used for labels in the header
	headerLabelStyle = lipgloss.NewStyle().
				Foreground(colorGray)

	// headerValueStyle is used for values in the header
	headerValueStyle = lipgloss.NewStyle().
				Foreground(colorForeground).
				Bold(true)

	// pipelineStyle is the border around the stage pipeline
	pipelineStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorDimGray).
			Padding(0, 1)

	// panelStyle is used for the scrolling event log
	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorDimGray).
			Padding(0, 1)

	// panelTitleStyle is used for panel titles
	panelTitleStyle = lipgloss.NewStyle().
			Foreground(colorMagenta).
			Bold(true)

	// scrollIndicatorStyle is for scroll indicators
	scrollIndicatorStyle = lipgloss.NewStyle().
				Foreground(colorGray).
				Italic(true)
)

// Status indicator styles
var (
	statusRunningStyle = lipgloss.NewStyle().
				Foreground(colorOrange).
				Bold(true)

	statusCompletedStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)

	statusFailedStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)

	statusPendingStyle = lipgloss.NewStyle().
				Foreground(colorGray)
)

// Role pipeline styles
var (
	roleNameStyle = lipgloss.NewStyle().
			Foreground(colorForeground)

	roleRunningStyle = lipgloss.NewStyle().
				Foreground(colorOrange)

	roleDoneStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	roleFailedStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	rolePendingStyle = lipgloss.NewStyle().
				Foreground(colorDimGray)

	stageLabelStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)
)

// Help text styles
var (
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	helpSeparatorStyle = lipgloss.NewStyle().
				Foreground(colorDimGray)
)

// Log line styles
var (
	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	sectionDividerStyle = lipgloss.NewStyle().
				Foreground(colorDimGray)

	doneMarkerStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	// System messages (branch switches, record keeping, etc.)
	systemMessageStyle = lipgloss.NewStyle().
				Foreground(colorGray).
				Italic(true)

	sessionLinkStyle = lipgloss.NewStyle().
				Foreground(colorCyan)
)
