package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/altin/gha-triage/internal/ui"
)

// RenderStatusBar renders the bottom line. busy, when non-empty, is a spinner
// frame shown before the status text.
func RenderStatusBar(busy, status, hints string, width int) string {
	text := "  " + status
	if busy != "" {
		text = " " + busy + " " + status
	}
	left := lipgloss.NewStyle().Foreground(ui.ColorMuted).Render(text)

	help := lipgloss.NewStyle().Foreground(ui.ColorMuted).
		Render(hints + " ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(help)
	if gap < 0 {
		gap = 0
	}
	padding := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#111827")).
		Width(width).
		Render(left + padding + help)
}
