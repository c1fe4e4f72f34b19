package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Field   lipgloss.Style
	Real    lipgloss.Style
	Derived lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: r.NewStyle().Bold(true).Underline(true),
		Header2: r.NewStyle().Bold(true),
		Success: r.NewStyle().Foreground(lipgloss.Color("2")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("3")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Field:   r.NewStyle().Foreground(lipgloss.Color("6")),
		Real:    r.NewStyle().Foreground(lipgloss.Color("4")),
		Derived: r.NewStyle().Foreground(lipgloss.Color("5")),
	}
}
