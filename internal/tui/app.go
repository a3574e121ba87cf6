package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altin/gha-triage/internal/ops"
	"github.com/altin/gha-triage/internal/tui/details"
	"github.com/altin/gha-triage/internal/tui/jobs"
	"github.com/altin/gha-triage/internal/tui/logview"
	"github.com/altin/gha-triage/internal/ui"
)

// TriageFunc classifies the failed jobs of the run, reporting progress.
type TriageFunc func(ctx context.Context, onProgress func(completed, total int)) (*ops.Result, error)

// LogFunc returns the raw log of a job.
type LogFunc func(ctx context.Context, jobID int64) (string, error)

type Options struct {
	Repo     string
	RunID    int64
	Triage   TriageFunc
	FetchLog LogFunc
}

type Pane int

const (
	PaneLeft Pane = iota
	PaneRight
)

type App struct {
	opts Options

	jobsView    jobs.Model
	detailsView details.Model
	logView     logview.Model
	spinner     spinner.Model

	counts      map[ops.Category]int
	focusedPane Pane
	width       int
	height      int
	status      string

	triaging    bool
	cancel      context.CancelFunc
	progress    chan ui.TriageProgressMsg
	logFailures []string

	showHelp      bool
	logFullScreen bool
}

func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ui.ColorPrimary)
	return App{
		opts:        opts,
		jobsView:    jobs.New(),
		detailsView: details.New(),
		logView:     logview.New(),
		spinner:     sp,
		focusedPane: PaneLeft,
		status:      "Triaging failed jobs...",
	}
}

func (a *App) Init() tea.Cmd {
	return a.startTriage()
}

// --- Commands ---

func (a *App) startTriage() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	progress := make(chan ui.TriageProgressMsg, 16)
	a.cancel = cancel
	a.progress = progress
	a.triaging = true
	a.jobsView.SetLoading()

	triage := a.opts.Triage
	run := func() tea.Msg {
		defer close(progress)
		res, err := triage(ctx, func(completed, total int) {
			select {
			case progress <- ui.TriageProgressMsg{Completed: completed, Total: total}:
			default:
			}
		})
		return ui.TriageDoneMsg{Result: res, Err: err}
	}
	return tea.Batch(run, waitForProgress(progress), a.spinner.Tick)
}

func waitForProgress(ch <-chan ui.TriageProgressMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (a App) fetchJobLog(jobID int64, jobName string) tea.Cmd {
	fetch := a.opts.FetchLog
	return func() tea.Msg {
		if fetch == nil {
			return ui.JobLogLoadedMsg{JobID: jobID, JobName: jobName, Err: fmt.Errorf("job logs are not available")}
		}
		content, err := fetch(context.Background(), jobID)
		return ui.JobLogLoadedMsg{JobID: jobID, JobName: jobName, Content: content, Err: err}
	}
}

// --- Update ---

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.propagateSize()
		return &a, nil

	case spinner.TickMsg:
		if !a.triaging {
			return &a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return &a, cmd

	case ui.TriageProgressMsg:
		a.status = fmt.Sprintf("Triaged %d/%d jobs...", msg.Completed, msg.Total)
		return &a, waitForProgress(a.progress)

	case ui.TriageDoneMsg:
		a.triaging = false
		if a.cancel != nil {
			a.cancel()
			a.cancel = nil
		}
		var cmd tea.Cmd
		a.jobsView, cmd = a.jobsView.Update(msg)
		a.detailsView.SetItem(a.jobsView.Selected())
		a.status = triageStatus(msg)
		if msg.Result != nil {
			a.counts = msg.Result.Counts()
		}
		return &a, cmd

	case ui.JobLogLoadedMsg:
		if msg.Err != nil {
			a.logFullScreen = false
			a.status = fmt.Sprintf("Log for %s: %v", msg.JobName, msg.Err)
			return &a, nil
		}
		a.logView.SetContent(msg.JobName, msg.Content, a.logFailures)
		a.status = msg.JobName
		return &a, nil

	case ui.StatusMsg:
		a.status = msg.Text
		return &a, nil

	case tea.KeyMsg:
		// Help overlay dismisses on any key
		if a.showHelp {
			a.showHelp = false
			return &a, nil
		}
		if a.logFullScreen {
			return a.updateLogView(msg)
		}
		if a.jobsView.IsFiltering() {
			var cmd tea.Cmd
			a.jobsView, cmd = a.jobsView.Update(msg)
			a.detailsView.SetItem(a.jobsView.Selected())
			return &a, cmd
		}

		switch msg.String() {
		case "q", "ctrl+c":
			if a.cancel != nil {
				a.cancel()
			}
			return &a, tea.Quit

		case "?":
			a.showHelp = true
			return &a, nil

		case "tab":
			if a.focusedPane == PaneLeft {
				a.focusedPane = PaneRight
			} else {
				a.focusedPane = PaneLeft
			}
			return &a, nil

		case "enter":
			if a.jobsView.Selected() != nil {
				a.focusedPane = PaneRight
			}
			return &a, nil

		case "esc":
			a.focusedPane = PaneLeft
			return &a, nil

		case "r":
			if a.triaging {
				return &a, nil
			}
			a.status = "Triaging failed jobs..."
			a.counts = nil
			return &a, a.startTriage()

		case "c":
			cmd := a.jobsView.CycleCategory()
			a.detailsView.SetItem(a.jobsView.Selected())
			if c := a.jobsView.Category(); c != "" {
				a.status = "Showing " + string(c)
			} else {
				a.status = "Showing all categories"
			}
			return &a, cmd

		case "l":
			item := a.jobsView.Selected()
			if item == nil {
				return &a, nil
			}
			a.logFullScreen = true
			a.logFailures = item.Record.FailureLines
			a.logView.SetLoading()
			a.status = "Loading log..."
			return &a, a.fetchJobLog(item.Record.ID, item.Record.Name)
		}

		var cmd tea.Cmd
		if a.focusedPane == PaneLeft {
			a.jobsView, cmd = a.jobsView.Update(msg)
			a.detailsView.SetItem(a.jobsView.Selected())
		} else {
			a.detailsView, cmd = a.detailsView.Update(msg)
		}
		cmds = append(cmds, cmd)
		return &a, tea.Batch(cmds...)
	}

	return &a, nil
}

func (a App) updateLogView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !a.logView.IsSearching() {
		switch msg.String() {
		case "esc", "backspace":
			a.logFullScreen = false
			return &a, nil
		case "q", "ctrl+c":
			if a.cancel != nil {
				a.cancel()
			}
			return &a, tea.Quit
		}
	}
	var cmd tea.Cmd
	a.logView, cmd = a.logView.Update(msg)
	return &a, cmd
}

func triageStatus(msg ui.TriageDoneMsg) string {
	switch {
	case msg.Err != nil && msg.Result != nil:
		return fmt.Sprintf("Triage stopped after %d jobs: %v", len(msg.Result.Items), msg.Err)
	case msg.Err != nil:
		return fmt.Sprintf("Triage failed: %v", msg.Err)
	case msg.Result == nil:
		return "No jobs triaged"
	case msg.Result.Failed > 0:
		return fmt.Sprintf("%d jobs triaged, %d errors", msg.Result.Completed, msg.Result.Failed)
	default:
		return fmt.Sprintf("%d jobs triaged", msg.Result.Completed)
	}
}

func (a *App) propagateSize() {
	// header(1) + status(1) + pane border(2)
	contentH := a.height - 4
	if contentH < 1 {
		contentH = 1
	}

	leftW := a.width * 45 / 100
	rightW := a.width - leftW - 4
	if rightW < 1 {
		rightW = 1
	}

	a.jobsView, _ = a.jobsView.Update(tea.WindowSizeMsg{Width: leftW, Height: contentH})
	a.detailsView, _ = a.detailsView.Update(tea.WindowSizeMsg{Width: rightW, Height: contentH})
	a.logView, _ = a.logView.Update(tea.WindowSizeMsg{Width: a.width - 4, Height: contentH})
}

// --- View ---

func (a App) View() string {
	header := RenderHeader(a.opts.Repo, a.opts.RunID, a.counts, a.width)

	contentH := a.height - 4
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case a.showHelp:
		content = a.renderHelp(contentH)
	case a.logFullScreen:
		content = ui.StylePaneFocused.Width(a.width - 2).Height(contentH).Render(a.logView.View())
	default:
		content = a.renderPanes(contentH)
	}

	busy := ""
	if a.triaging {
		busy = a.spinner.View()
	}
	statusBar := RenderStatusBar(busy, a.status, a.contextHints(), a.width)

	// Hard clamp so content never overflows the terminal.
	maxContentLines := a.height - 2
	if maxContentLines > 0 {
		lines := strings.Split(content, "\n")
		if len(lines) > maxContentLines {
			content = strings.Join(lines[:maxContentLines], "\n")
		}
	}

	return header + "\n" + content + "\n" + statusBar
}

func (a App) renderPanes(contentH int) string {
	leftW := a.width * 45 / 100
	rightW := a.width - leftW - 4
	if rightW < 1 {
		rightW = 1
	}

	leftStyle := ui.StylePane.Width(leftW).Height(contentH)
	rightStyle := ui.StylePane.Width(rightW).Height(contentH)
	if a.focusedPane == PaneLeft {
		leftStyle = ui.StylePaneFocused.Width(leftW).Height(contentH)
	} else {
		rightStyle = ui.StylePaneFocused.Width(rightW).Height(contentH)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Render(a.jobsView.View()),
		rightStyle.Render(a.detailsView.View()))
}

func (a App) contextHints() string {
	if a.logFullScreen {
		if a.logView.IsSearching() {
			return "enter:confirm  esc:cancel"
		}
		return "/:search  n/N:match  e:failure  j/k:scroll  esc:back"
	}
	if a.jobsView.IsFiltering() {
		return "enter:apply  esc:cancel"
	}
	legend := fmt.Sprintf("%s=flaky %s=infra %s=unclassified %s=new",
		ui.CategoryIcon(ops.CategoryFlaky),
		ui.CategoryIcon(ops.CategoryInfraFlaky),
		ui.CategoryIcon(ops.CategoryClassifierFailed),
		ui.CategoryIcon(ops.CategoryNewFailure),
	)
	if a.focusedPane == PaneLeft {
		return legend + "  |  enter:verdict  l:log  c:category  f:filter  r:re-triage  ?:help"
	}
	return legend + "  |  j/k:scroll  l:log  tab:pane  esc:back  ?:help"
}

func (a App) renderHelp(contentH int) string {
	bold := lipgloss.NewStyle().Bold(true)
	key := lipgloss.NewStyle().Foreground(ui.ColorPrimary).Bold(true).Width(14)
	desc := lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))

	row := func(k, d string) string {
		return "  " + key.Render(k) + desc.Render(d) + "\n"
	}

	var b strings.Builder
	b.WriteString("\n" + bold.Render("  Navigation") + "\n\n")
	b.WriteString(row("tab", "Switch pane"))
	b.WriteString(row("j / k", "Move down / up"))
	b.WriteString(row("enter", "Focus verdict"))
	b.WriteString(row("esc", "Back"))
	b.WriteString(row("q", "Quit"))

	b.WriteString("\n" + bold.Render("  Triage") + "\n\n")
	b.WriteString(row("c", "Cycle category"))
	b.WriteString(row("f", "Filter list"))
	b.WriteString(row("r", "Re-run triage"))
	b.WriteString(row("l", "View job log"))

	b.WriteString("\n" + bold.Render("  Log Viewer") + "\n\n")
	b.WriteString(row("/", "Search in log"))
	b.WriteString(row("n / N", "Next / previous match"))
	b.WriteString(row("e", "Next failure line"))
	b.WriteString(row("g / G", "Go to top / bottom"))
	b.WriteString(row("esc", "Exit log view"))

	b.WriteString("\n" + ui.StyleMuted.Render("  Press any key to close") + "\n")

	return ui.StylePaneFocused.Width(a.width - 2).Height(contentH).Render(b.String())
}
