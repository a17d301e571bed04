// Package styles contains Lip Gloss style definitions.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/conch/internal/config"
)

// Semantic color names.
var (
	EchoColor      = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"} // Echoed commands
	ResultColor    = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"} // Evaluated results
	ErrorColor     = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"} // Evaluation failures
	SelectionColor = lipgloss.AdaptiveColor{Light: "#B8D0F0", Dark: "#3A5A8C"} // Selection highlight background
	MutedColor     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, status bar
)

// Set is the resolved style set the console renders with.
type Set struct {
	Echo      lipgloss.Style
	Result    lipgloss.Style
	Error     lipgloss.Style
	Selection lipgloss.Style
	Cursor    lipgloss.Style
	Status    lipgloss.Style
}

// Default returns the built-in style set.
func Default() Set {
	return Set{
		Echo:      lipgloss.NewStyle().Foreground(EchoColor),
		Result:    lipgloss.NewStyle().Foreground(ResultColor),
		Error:     lipgloss.NewStyle().Foreground(ErrorColor),
		Selection: lipgloss.NewStyle().Background(SelectionColor),
		Cursor:    lipgloss.NewStyle().Reverse(true),
		Status:    lipgloss.NewStyle().Foreground(MutedColor),
	}
}

// FromTheme overlays theme color overrides onto the default set. Empty
// fields keep their defaults.
func FromTheme(theme config.ThemeConfig) Set {
	s := Default()
	if theme.Echo != "" {
		s.Echo = s.Echo.Foreground(lipgloss.Color(theme.Echo))
	}
	if theme.Result != "" {
		s.Result = s.Result.Foreground(lipgloss.Color(theme.Result))
	}
	if theme.Error != "" {
		s.Error = s.Error.Foreground(lipgloss.Color(theme.Error))
	}
	if theme.Selection != "" {
		s.Selection = s.Selection.Background(lipgloss.Color(theme.Selection))
	}
	if theme.Muted != "" {
		s.Status = s.Status.Foreground(lipgloss.Color(theme.Muted))
	}
	return s
}
