package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/altin/gha-triage/internal/ops"
	"github.com/altin/gha-triage/internal/tui"
)

var (
	tuiRunID  int64
	tuiPR     int
	tuiCorpus string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Triage a workflow run interactively",
	Long: `Run the same triage as 'run' and browse the verdicts in a terminal UI.
Logs go to the log file only while the UI owns the terminal.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().Int64Var(&tuiRunID, "run", 0, "workflow run ID (required)")
	tuiCmd.Flags().IntVar(&tuiPR, "pr", 0, "pull request number (default: from the run)")
	tuiCmd.Flags().StringVar(&tuiCorpus, "corpus", "", "JSON failure corpus to search instead of the store")
	_ = tuiCmd.MarkFlagRequired("run")
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := openServices(ctx, tuiCorpus)
	if err != nil {
		return err
	}
	defer svc.Close()
	// Logs found while triaging are usually opened next.
	svc.logs.Prefetch = true

	app := tui.NewApp(tui.Options{
		Repo:  cfg.RepoNWO(),
		RunID: tuiRunID,
		Triage: func(ctx context.Context, onProgress func(completed, total int)) (*ops.Result, error) {
			in, err := svc.loadRun(ctx, tuiRunID, tuiPR)
			if err != nil {
				return nil, err
			}
			batch := ops.Batch{
				Engine:         svc.engine,
				Logs:           svc.logs,
				Suppressions:   cfg.Suppressions(),
				Labels:         in.labels,
				BaseCommitTime: in.base,
			}
			return batch.Run(ctx, in.records, onProgress)
		},
		FetchLog: svc.logs.Log,
	})

	p := tea.NewProgram(&app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
