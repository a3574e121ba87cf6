package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/altin/gha-triage/internal/model"
	"github.com/altin/gha-triage/internal/ops"
	"github.com/altin/gha-triage/internal/triage"
	"github.com/altin/gha-triage/internal/ui"
)

var labelStyle = lipgloss.NewStyle().Foreground(ui.ColorMuted).Width(12)

func field(w io.Writer, k, v string) {
	fmt.Fprintf(w, "  %s%s\n", labelStyle.Render(k), v)
}

// checkReport is the outcome of the check command.
type checkReport struct {
	Job              model.JobRecord  `json:"job"`
	Excluded         bool             `json:"excluded"`
	InfraFlaky       bool             `json:"infra_flaky"`
	ClassifierFailed bool             `json:"classifier_failed"`
	Outcome          string           `json:"outcome"`
	Match            *model.JobRecord `json:"match,omitempty"`
	Inspected        int              `json:"inspected"`
}

func newCheckReport(rec model.JobRecord, v triage.Verdict) checkReport {
	return checkReport{
		Job:       rec,
		Excluded:  v.Outcome == triage.OutcomeExcluded,
		Outcome:   v.Outcome.String(),
		Match:     v.Match,
		Inspected: v.Inspected,
	}
}

func renderCheck(w io.Writer, r checkReport) {
	fmt.Fprintln(w, ui.StyleHeader.Render(fmt.Sprintf("job %d", r.Job.ID)))
	field(w, "name", r.Job.Name)
	field(w, "sha", r.Job.ShortSHA())
	if r.Job.HeadSHATimestamp.Valid {
		field(w, "committed", r.Job.HeadSHATimestamp.String())
	}
	if len(r.Job.FailureCaptures) > 0 {
		field(w, "captures", strings.Join(r.Job.FailureCaptures, " | "))
	}
	if r.InfraFlaky {
		field(w, "infra", ui.StyleInfo.Render("infra flaky: failed before a runner picked it up"))
	}
	if r.ClassifierFailed {
		field(w, "classifier", ui.StyleInfo.Render("no usable failure lines or raw log"))
	}

	outcome := ui.StyleFailure.Render(r.Outcome)
	if r.Match != nil {
		outcome = ui.StyleWarning.Render(r.Outcome)
	}
	field(w, "outcome", outcome)
	field(w, "inspected", fmt.Sprintf("%d candidates", r.Inspected))

	if m := r.Match; m != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, ui.StyleWarning.Render("  similar failure found"))
		field(w, "job", fmt.Sprintf("%d %s", m.ID, m.Name))
		field(w, "sha", m.ShortSHA())
		if m.HeadBranch != "" {
			field(w, "branch", m.HeadBranch)
		}
		if t := m.EventTime(); t.Valid {
			field(w, "when", t.String())
		}
		if m.HTMLURL != "" {
			field(w, "url", ui.StyleInfo.Render(m.HTMLURL))
		}
	}
}

func renderBatch(w io.Writer, run *model.Run, res *ops.Result) {
	fmt.Fprintln(w, ui.StyleHeader.Render(fmt.Sprintf("run %d  %s  %s", run.ID, run.Name, run.ShortSHA())))

	byCategory := make(map[ops.Category][]ops.Triaged)
	for _, it := range res.Items {
		byCategory[it.Category] = append(byCategory[it.Category], it)
	}
	for _, c := range ops.Categories() {
		items := byCategory[c]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s %s\n", ui.CategoryIcon(c), ui.CategoryStyle(c).Bold(true).Render(fmt.Sprintf("%s (%d)", c, len(items))))
		for _, it := range items {
			line := fmt.Sprintf("    %d  %s", it.Record.ID, it.Record.Name)
			if m := it.Verdict.Match; m != nil {
				line += ui.StyleMuted.Render(fmt.Sprintf("  first seen in job %d (%s)", m.ID, m.ShortSHA()))
			}
			if it.Err != nil {
				line += ui.StyleFailure.Render("  " + it.Err.Error())
			}
			if len(it.Suppressed) > 0 {
				line += ui.StyleMuted.Render("  suppressed by " + strings.Join(it.Suppressed, ", "))
			}
			fmt.Fprintln(w, line)
		}
	}
	if len(res.Items) == 0 {
		fmt.Fprintln(w, "\nNo failed jobs.")
	}
}
