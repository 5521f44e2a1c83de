package components

import "github.com/charmbracelet/lipgloss"

// Color scheme
const (
	ColorPrimary = "6"  // Cyan
	ColorSuccess = "2"  // Green
	ColorWarning = "3"  // Yellow
	ColorError   = "1"  // Red
	ColorText    = "15" // White
	ColorMuted   = "8"  // Dark gray
	ColorAccent  = "11" // Bright yellow
	ColorBanner  = "9"  // Bright red
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorPrimary)).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true)

	SectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(ColorMuted))
)

// Text styles
var (
	KeyHighlightStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorAccent)).
				Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError))

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMuted))

	TaskStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorText))

	TimerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorText))

	OnTaskStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorSuccess))

	OffTaskStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorError))

	RunningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSuccess))

	StatusConnectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorSuccess))

	StatusPendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorWarning))

	StatusDisconnectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorError))
)

// Container styles
var (
	MainContentStyle = lipgloss.NewStyle().
				Padding(1, 2)

	CardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorMuted)).
			Padding(0, 1)

	BannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorText)).
			Background(lipgloss.Color(ColorBanner)).
			Padding(0, 2)

	FooterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMuted)).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			Padding(0, 1)
)

// ApplyWidth applies width to a style and returns a new style
func ApplyWidth(style lipgloss.Style, width int) lipgloss.Style {
	if width <= 2 {
		return style
	}
	return style.Width(width - 2)
}
