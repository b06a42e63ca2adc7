package omnibox

import "github.com/charmbracelet/lipgloss"

// Styles contains the style definitions of the omnibox
type Styles struct {
	Prompt      lipgloss.Style
	Dropdown    lipgloss.Style
	GroupHeader lipgloss.Style
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Score       lipgloss.Style
	HighlightBg lipgloss.Style
	Dim         lipgloss.Style
	StatusError lipgloss.Style
	Loading     lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() Styles {
	return Styles{
		Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true),
		Dropdown:    lipgloss.NewStyle().PaddingLeft(1),
		GroupHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Title:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Subtitle:    lipgloss.NewStyle().Faint(true),
		Score:       lipgloss.NewStyle().Foreground(lipgloss.Color("78")), // green
		HighlightBg: lipgloss.NewStyle().Background(lipgloss.Color("238")).Foreground(lipgloss.Color("226")).Bold(true),
		Dim:         lipgloss.NewStyle().Faint(true),
		StatusError: lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		Loading:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
	}
}
