// Package cli provides styled terminal output using lipgloss.
package cli

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle formats table headers.
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))

	// SuccessStyle formats confirmation messages after mutations.
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("116"))

	// SubtleStyle formats less prominent text such as empty placeholders.
	SubtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// ErrorStyle formats failure messages.
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)
