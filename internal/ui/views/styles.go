package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Modified      lipgloss.Style
	Dim           lipgloss.Style
	Label         lipgloss.Style
	ToggleOn      lipgloss.Style
	ToggleOff     lipgloss.Style
	Counter       lipgloss.Style
	Highlight     lipgloss.Style
	Help          lipgloss.Style
	Bar           lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusLoading lipgloss.Style
	StatusSuccess lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Modified:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		Dim:           lipgloss.NewStyle().Faint(true),
		Label:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		ToggleOn:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("78")),
		ToggleOff:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Counter:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Highlight:     lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Background(lipgloss.Color("238")).Bold(true),
		Help:          lipgloss.NewStyle().Faint(true),
		Bar:           lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).BorderForeground(lipgloss.Color("241")),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
	}
}
