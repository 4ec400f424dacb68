package session

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	address   lipgloss.Style
	label     lipgloss.Style
	detail    lipgloss.Style
	connected lipgloss.Style
	pending   lipgloss.Style
	warning   lipgloss.Style
	section   lipgloss.Style
	empty     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		address:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		label:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		detail:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		connected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78")),
		pending:   lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		warning:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:   lipgloss.NewStyle().MarginTop(1),
		empty:     lipgloss.NewStyle().Faint(true),
	}
}
