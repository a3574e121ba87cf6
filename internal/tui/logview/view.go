package logview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altin/gha-triage/internal/ui"
)

type Model struct {
	viewport viewport.Model
	content  string
	jobName  string
	width    int
	height   int
	ready    bool
	loading  bool

	// In-log search
	searchInput textinput.Model
	searching   bool
	searchQuery string
	matchLines  []int // 0-based line indices of matches
	matchIndex  int
	matchTotal  int

	// Lines the log classifier reported as failures
	failureLines []int
}

func New() Model {
	ti := textinput.New()
	ti.Placeholder = "Search in log..."
	ti.CharLimit = 256
	return Model{searchInput: ti}
}

// SetContent loads a job log and scrolls to the first line that contains
// one of the classifier's failure lines.
func (m *Model) SetContent(jobName, content string, failures []string) {
	m.jobName = jobName
	m.content = content
	m.loading = false
	m.searchQuery = ""
	m.matchLines = nil
	m.matchIndex = 0
	m.matchTotal = 0
	m.failureLines = locateFailures(content, failures)
	if m.ready {
		m.viewport.SetContent(m.applyHighlights())
		m.viewport.GotoTop()
		if len(m.failureLines) > 0 {
			m.viewport.SetYOffset(m.failureLines[0])
		}
	}
}

func (m *Model) SetLoading() {
	m.loading = true
}

// FailureLines returns the 0-based log lines matching a failure line.
func (m Model) FailureLines() []int {
	return m.failureLines
}

func locateFailures(content string, failures []string) []int {
	var wanted []string
	for _, f := range failures {
		if f = strings.TrimSpace(f); f != "" {
			wanted = append(wanted, f)
		}
	}
	if len(wanted) == 0 {
		return nil
	}
	var out []int
	for i, line := range strings.Split(content, "\n") {
		for _, f := range wanted {
			if strings.Contains(line, f) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func (m Model) IsSearching() bool {
	return m.searching
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter":
				query := m.searchInput.Value()
				if query != "" {
					m.searchQuery = query
					m.findMatches()
					m.viewport.SetContent(m.applyHighlights())
					if len(m.matchLines) > 0 {
						m.matchIndex = 0
						m.viewport.SetYOffset(m.matchLines[0])
					}
				}
				m.searching = false
				m.searchInput.Blur()
				return m, nil
			case "esc":
				m.searching = false
				m.searchInput.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "/":
			m.searching = true
			m.searchInput.SetValue("")
			m.searchInput.Focus()
			return m, textinput.Blink
		case "n":
			if len(m.matchLines) > 0 {
				m.matchIndex = (m.matchIndex + 1) % len(m.matchLines)
				m.viewport.SetContent(m.applyHighlights())
				m.viewport.SetYOffset(m.matchLines[m.matchIndex])
			}
			return m, nil
		case "N":
			if len(m.matchLines) > 0 {
				m.matchIndex = (m.matchIndex - 1 + len(m.matchLines)) % len(m.matchLines)
				m.viewport.SetContent(m.applyHighlights())
				m.viewport.SetYOffset(m.matchLines[m.matchIndex])
			}
			return m, nil
		case "e":
			for _, line := range m.failureLines {
				if line > m.viewport.YOffset {
					m.viewport.SetYOffset(line)
					return m, nil
				}
			}
			if len(m.failureLines) > 0 {
				m.viewport.SetYOffset(m.failureLines[0])
			}
			return m, nil
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerH := 1
		if m.searching {
			headerH = 2
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerH)
			m.ready = true
			if m.content != "" {
				m.viewport.SetContent(m.applyHighlights())
			}
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerH
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) findMatches() {
	m.matchLines = nil
	if m.searchQuery == "" || m.content == "" {
		m.matchTotal = 0
		return
	}
	query := strings.ToLower(m.searchQuery)
	lines := strings.Split(m.content, "\n")
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), query) {
			m.matchLines = append(m.matchLines, i)
		}
	}
	m.matchTotal = len(m.matchLines)
}

// applyHighlights returns the content with search matches and failure
// lines highlighted.
func (m Model) applyHighlights() string {
	hasSearch := m.searchQuery != "" && len(m.matchLines) > 0
	if !hasSearch && len(m.failureLines) == 0 {
		return m.content
	}

	matchSet := make(map[int]bool)
	for _, idx := range m.matchLines {
		matchSet[idx] = true
	}
	failureSet := make(map[int]bool)
	for _, idx := range m.failureLines {
		failureSet[idx] = true
	}

	currentMatchLine := -1
	if m.matchIndex >= 0 && m.matchIndex < len(m.matchLines) {
		currentMatchLine = m.matchLines[m.matchIndex]
	}

	highlight := lipgloss.NewStyle().Background(lipgloss.Color("#374151"))
	current := lipgloss.NewStyle().Background(lipgloss.Color("#92400E")).Bold(true)
	failure := lipgloss.NewStyle().Foreground(ui.ColorFailure).Bold(true)

	lines := strings.Split(m.content, "\n")
	for i, line := range lines {
		switch {
		case i == currentMatchLine:
			lines[i] = current.Render(line)
		case matchSet[i]:
			lines[i] = highlight.Render(line)
		case failureSet[i]:
			lines[i] = failure.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) View() string {
	if m.loading {
		return "\n  Loading log..."
	}
	if m.content == "" {
		return "\n  Press l on a job to view its log"
	}

	headerParts := fmt.Sprintf(" %s  %3.f%%", m.jobName, m.viewport.ScrollPercent()*100)
	if len(m.failureLines) > 0 {
		headerParts += fmt.Sprintf("  [%d failure lines]", len(m.failureLines))
	}
	if m.searchQuery != "" && m.matchTotal > 0 {
		headerParts += fmt.Sprintf("  [%d/%d matches]", m.matchIndex+1, m.matchTotal)
	} else if m.searchQuery != "" {
		headerParts += "  [no matches]"
	}
	hints := ui.StyleMuted.Render(
		"  /:search  n/N:match  e:failure  g/G:top/bot  esc:back")
	header := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(headerParts) + hints

	if m.searching {
		searchLine := "  /" + m.searchInput.View()
		return header + "\n" + searchLine + "\n" + m.viewport.View()
	}

	return header + "\n" + m.viewport.View()
}
