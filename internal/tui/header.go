package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/altin/gha-triage/internal/ops"
	"github.com/altin/gha-triage/internal/ui"
)

// RenderHeader shows the repo and run on the left and per-category counts
// on the right.
func RenderHeader(repo string, runID int64, counts map[ops.Category]int, width int) string {
	left := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(fmt.Sprintf(" gha-triage | %s | run %d", repo, runID))

	var parts []string
	for _, c := range ops.Categories() {
		if n := counts[c]; n > 0 {
			parts = append(parts, ui.CategoryStyle(c).Render(fmt.Sprintf("%s %d", c, n)))
		}
	}
	right := ""
	if len(parts) > 0 {
		right = strings.Join(parts, "  ") + " "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	padding := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(ui.ColorHighlight).
		Width(width).
		Render(left + padding + right)
}
