package details

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altin/gha-triage/internal/model"
	"github.com/altin/gha-triage/internal/ops"
	"github.com/altin/gha-triage/internal/ui"
)

// Model shows the verdict for one triaged job.
type Model struct {
	item     *ops.Triaged
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

func New() Model {
	return Model{}
}

func (m *Model) SetItem(item *ops.Triaged) {
	m.item = item
	if m.ready {
		m.viewport.SetContent(m.renderVerdict())
		m.viewport.GotoTop()
	}
}

func (m Model) Item() *ops.Triaged {
	return m.item
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-1)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 1
		}
		m.viewport.SetContent(m.renderVerdict())
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) renderVerdict() string {
	if m.item == nil {
		return ""
	}
	it := m.item
	bold := lipgloss.NewStyle().Bold(true)
	label := lipgloss.NewStyle().Foreground(ui.ColorMuted).Width(12)

	row := func(k, v string) string {
		return "  " + label.Render(k) + v + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(row("category", ui.CategoryStyle(it.Category).Render(string(it.Category))))
	if it.Err != nil {
		b.WriteString(row("error", ui.StyleFailure.Render(it.Err.Error())))
	}
	if it.Category == ops.CategoryFlaky || it.Category == ops.CategoryNewFailure {
		b.WriteString(row("outcome", it.Verdict.Outcome.String()))
		b.WriteString(row("inspected", fmt.Sprintf("%d candidates", it.Verdict.Inspected)))
		if !it.Verdict.Window.Start.IsZero() {
			w := it.Verdict.Window
			b.WriteString(row("window", fmt.Sprintf("%s .. %s",
				w.Start.UTC().Format("2006-01-02 15:04"), w.End.UTC().Format("2006-01-02 15:04"))))
		}
	}
	if len(it.Suppressed) > 0 {
		b.WriteString(row("suppressed", strings.Join(it.Suppressed, ", ")))
	}

	b.WriteString("\n" + bold.Render("  Job") + "\n")
	writeRecord(&b, row, it.Record)

	if match := it.Verdict.Match; match != nil {
		b.WriteString("\n" + bold.Render("  First seen") + "\n")
		writeRecord(&b, row, *match)
	}

	if len(it.Record.FailureLines) > 0 {
		b.WriteString("\n" + bold.Render("  Failure lines") + "\n")
		for _, line := range it.Record.FailureLines {
			b.WriteString("  " + ui.StyleFailure.Render(line) + "\n")
		}
	}
	return b.String()
}

func writeRecord(b *strings.Builder, row func(k, v string) string, rec model.JobRecord) {
	b.WriteString(row("id", fmt.Sprintf("%d", rec.ID)))
	b.WriteString(row("sha", rec.ShortSHA()))
	if rec.HeadBranch != "" {
		b.WriteString(row("branch", rec.HeadBranch))
	}
	if rec.PRNumber != 0 {
		b.WriteString(row("pr", fmt.Sprintf("#%d", rec.PRNumber)))
	}
	if rec.HeadSHATimestamp.Valid {
		b.WriteString(row("committed", rec.HeadSHATimestamp.String()))
	}
	if rec.RunnerName != "" {
		b.WriteString(row("runner", rec.RunnerName))
	}
	if len(rec.FailureCaptures) > 0 {
		b.WriteString(row("captures", strings.Join(rec.FailureCaptures, " | ")))
	}
	if rec.HTMLURL != "" {
		b.WriteString(row("url", ui.StyleInfo.Render(rec.HTMLURL)))
	}
}

func (m Model) View() string {
	if m.item == nil {
		return "\n  Select a job"
	}
	header := " " + m.item.Record.Name
	return lipgloss.NewStyle().Bold(true).Render(header) + "\n" + m.viewport.View()
}
