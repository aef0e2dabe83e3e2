package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for the chat UI.
type Theme struct {
	Primary    lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Warning:    lipgloss.Color("#F9E2AF"), // Yellow
		Error:      lipgloss.Color("#F38BA8"), // Red
		Border:     lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	Title    lipgloss.Style
	Question lipgloss.Style
	Answer   lipgloss.Style
	Citation lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Status   lipgloss.Style
	InputBox lipgloss.Style
}

// DefaultStyles returns styles built from the default theme.
func DefaultStyles() *Styles {
	theme := DefaultTheme()

	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Padding(0, 1),
		Question: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),
		Answer: lipgloss.NewStyle().
			Foreground(theme.Foreground),
		Citation: lipgloss.NewStyle().
			Foreground(theme.Muted),
		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),
		Error: lipgloss.NewStyle().
			Foreground(theme.Error),
		Status: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),
		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
	}
}
