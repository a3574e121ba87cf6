package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/altin/gha-triage/internal/ops"
)

var (
	runID     int64
	runPR     int
	runCorpus string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Triage every failed job of a workflow run",
	Long: `Classify each failed job of a workflow run as excluded, infra-flaky,
classifier-failed, flaky (a similar failure was seen before) or a new failure.

Jobs are looked up in the failure corpus so their failure captures can be
compared. The PR defaults to the run's first associated pull request.

Examples:
  gha-triage run -R pytorch/pytorch --run 9876543210
  gha-triage run -R pytorch/pytorch --run 9876543210 --pr 12345`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int64Var(&runID, "run", 0, "workflow run ID (required)")
	runCmd.Flags().IntVar(&runPR, "pr", 0, "pull request number (default: from the run)")
	runCmd.Flags().StringVar(&runCorpus, "corpus", "", "JSON failure corpus to search instead of the store")
	_ = runCmd.MarkFlagRequired("run")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := openServices(ctx, runCorpus)
	if err != nil {
		return err
	}
	defer svc.Close()

	in, err := svc.loadRun(ctx, runID, runPR)
	if err != nil {
		return err
	}

	batch := ops.Batch{
		Engine:         svc.engine,
		Logs:           svc.logs,
		Suppressions:   cfg.Suppressions(),
		Labels:         in.labels,
		BaseCommitTime: in.base,
	}
	res, err := batch.Run(ctx, in.records, func(completed, total int) {
		if verbose {
			fmt.Fprintf(os.Stderr, "\rtriaged %d/%d", completed, total)
		}
	})
	if verbose && len(in.records) > 0 {
		fmt.Fprintln(os.Stderr)
	}
	if res != nil {
		renderBatch(cmd.OutOrStdout(), in.run, res)
	}
	if err != nil {
		return fmt.Errorf("triage run %d: %w", runID, err)
	}
	for _, e := range res.Errors {
		logger.Error("job triage failed", "error", e)
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d jobs could not be triaged", res.Failed, len(res.Items))
	}
	return nil
}
