package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - traffic-light theme for check verdicts
const (
	ColorGreen    = "40"  // Passing checks
	ColorYellow   = "220" // Warnings
	ColorRed      = "196" // Failures, blocked verdicts
	ColorWhite    = "255" // Headers, important text
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Separators
)

// Styles holds the lipgloss styles for rendering check reports.
type Styles struct {
	Header lipgloss.Style
	Pass   lipgloss.Style
	Warn   lipgloss.Style
	Fail   lipgloss.Style
	Dim    lipgloss.Style
	Label  lipgloss.Style
	Remedy lipgloss.Style
}

// DefaultStyles returns styled components for terminal output.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Pass:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		Warn:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Fail:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorRed)),
		Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Label:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Remedy: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle(),
		Pass:   lipgloss.NewStyle(),
		Warn:   lipgloss.NewStyle(),
		Fail:   lipgloss.NewStyle(),
		Dim:    lipgloss.NewStyle(),
		Label:  lipgloss.NewStyle(),
		Remedy: lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
