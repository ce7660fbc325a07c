package ui

import "github.com/charmbracelet/lipgloss/v2"

// Color constants
const (
	ColorBlack      = "0"
	ColorDarkerBlue = "4"
	ColorCyan       = "6"
	ColorGrey       = "7"
	ColorRed        = "9"
	ColorYellow     = "11"
	ColorWhite      = "15"
)

// Common styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Background(lipgloss.Color(ColorDarkerBlue)).
			Foreground(lipgloss.Color(ColorWhite)).
			Bold(true)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorCyan)).
				Bold(true)

	RowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGrey))

	RowSelectedStyle = lipgloss.NewStyle().
				Background(lipgloss.Color(ColorCyan)).
				Foreground(lipgloss.Color(ColorBlack))

	RowFailedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorRed))

	RowPendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorYellow))

	LogPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(ColorCyan))

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorCyan)).
			Padding(0, 1)

	ToastStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("196")).
			Foreground(lipgloss.Color(ColorWhite)).
			Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Background(lipgloss.Color(ColorBlack)).
			Foreground(lipgloss.Color(ColorGrey))
)
