package jobs

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altin/gha-triage/internal/ops"
	"github.com/altin/gha-triage/internal/ui"
)

// --- Custom delegate (avoids DefaultDelegate ANSI corruption during filtering) ---

type jobDelegate struct{}

func (d jobDelegate) Height() int                              { return 2 }
func (d jobDelegate) Spacing() int                             { return 0 }
func (d jobDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d jobDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ji, ok := item.(jobItem)
	if !ok {
		return
	}
	rec := ji.item.Record

	icon := ui.CategoryIcon(ji.item.Category)
	category := ui.CategoryStyle(ji.item.Category).Render(string(ji.item.Category))
	sha := ui.StyleMuted.Render(rec.ShortSHA())

	line1 := fmt.Sprintf(" %s %s  %s", icon, rec.Name, sha)
	line2 := "    " + category
	if match := ji.item.Verdict.Match; match != nil {
		line2 += ui.StyleMuted.Render(fmt.Sprintf("  seen in job %d (%s)", match.ID, match.ShortSHA()))
	}
	if len(ji.item.Suppressed) > 0 {
		line2 += ui.StyleMuted.Render(fmt.Sprintf("  suppressed by %v", ji.item.Suppressed))
	}

	if index == m.Index() {
		hl := lipgloss.NewStyle().Background(ui.ColorHighlight).Width(m.Width())
		line1 = hl.Render(line1)
		line2 = hl.Render(line2)
	}

	fmt.Fprintf(w, "%s\n%s", line1, line2)
}

// --- Item ---

type jobItem struct {
	item ops.Triaged
}

func (j jobItem) FilterValue() string {
	return j.item.Record.Name + " " + string(j.item.Category) + " " + j.item.Record.HeadBranch
}

// --- Model ---

type Model struct {
	list     list.Model
	items    []ops.Triaged
	category ops.Category
	width    int
	height   int
	loading  bool
	err      error
}

func New() Model {
	l := list.New(nil, jobDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowFilter(true)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(true)
	l.KeyMap.Filter = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter"))
	// l is the app's log key; keep paging on pgup/pgdown only.
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "next page"))
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "prev page"))
	l.DisableQuitKeybindings()

	return Model{list: l, loading: true}
}

func (m Model) Selected() *ops.Triaged {
	if it, ok := m.list.SelectedItem().(jobItem); ok {
		return &it.item
	}
	return nil
}

// Category is the category the list is narrowed to, or "" for all.
func (m Model) Category() ops.Category {
	return m.category
}

func (m *Model) SetLoading() {
	m.loading = true
	m.err = nil
}

// CycleCategory narrows the list to the next category that has items,
// wrapping back to all.
func (m *Model) CycleCategory() tea.Cmd {
	present := make(map[ops.Category]bool)
	for _, it := range m.items {
		present[it.Category] = true
	}
	order := append([]ops.Category{""}, ops.Categories()...)
	start := 0
	for i, c := range order {
		if c == m.category {
			start = i
			break
		}
	}
	for step := 1; step <= len(order); step++ {
		c := order[(start+step)%len(order)]
		if c == "" || present[c] {
			m.category = c
			break
		}
	}
	return m.setItems()
}

func (m *Model) setItems() tea.Cmd {
	var items []list.Item
	for _, it := range m.items {
		if m.category == "" || it.Category == m.category {
			items = append(items, jobItem{item: it})
		}
	}
	cmd := m.list.SetItems(items)
	m.list.Select(0)
	return cmd
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.TriageDoneMsg:
		m.loading = false
		if msg.Result == nil {
			m.err = msg.Err
			m.items = nil
			return m, nil
		}
		m.err = nil
		m.items = msg.Result.Items
		m.category = ""
		return m, m.setItems()

	case tea.KeyMsg:
		// The list disables its filter binding when it has no items; re-enable
		// it once items exist so 'f' always works.
		if msg.String() == "f" && !m.IsFiltering() && len(m.list.Items()) > 0 {
			m.list.KeyMap.Filter.SetEnabled(true)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.loading {
		return "\n  Triaging failed jobs..."
	}
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v", m.err)
	}
	if len(m.items) == 0 {
		return "\n  No failed jobs in this run"
	}
	return m.list.View()
}

func (m Model) IsFiltering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) HasActiveFilter() bool {
	return m.list.FilterState() != list.Unfiltered
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{
		ui.Keys.Enter,
		ui.Keys.Log,
		ui.Keys.Filter,
		ui.Keys.Category,
		ui.Keys.Refresh,
	}
}
