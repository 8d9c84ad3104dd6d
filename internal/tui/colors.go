package tui

import "github.com/charmbracelet/lipgloss"

// Color constants for the volhours TUI theme
const (
	// Base Colors
	ColorBorder = "#3A4A42" // Muted pine

	// Text Colors
	ColorPrimaryText   = "#E8F0EA" // Titles, values, user input
	ColorSecondaryText = "#A9B8AE" // Labels and secondary details
	ColorDisabledText  = "#6B7570" // Empty values
	ColorPlaceholder   = "#A9B8AE"
	ColorHelpText      = "240" // Dark grey for help text

	// Accent Colors (green theme)
	ColorAccentMain   = "#16A34A" // Headers, active borders
	ColorAccentBright = "#4ADE80" // Clock, highlights, current step

	// State Colors
	ColorError   = "#EF4444" // Validation errors
	ColorSuccess = "#22C55E" // Approved, confirmations
	ColorWarning = "#F59E0B" // Pending, open sessions
)

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
