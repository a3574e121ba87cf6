package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/altin/gha-triage/internal/model"
	"github.com/altin/gha-triage/internal/triage"
)

var (
	checkJobID  int64
	checkBaseTS string
	checkCorpus string
	checkJSON   bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Find the first prior occurrence of one job's failure",
	Long: `Look up a failed job in the failure corpus, or on GitHub when the
corpus does not have it, and search for the first earlier failure with the
same signature on an unrelated commit.

The search window ends at the job's head commit time and starts one lookback
before the PR's base commit. Windows wider than the configured ceiling are
rejected.

Examples:
  gha-triage check -R pytorch/pytorch --job 24581234567
  gha-triage check -R pytorch/pytorch --job 24581234567 --base-ts 2024-05-01T08:00:00Z
  gha-triage check -R pytorch/pytorch --job 24581234567 --corpus failures.json --json`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Int64Var(&checkJobID, "job", 0, "job ID to check (required)")
	checkCmd.Flags().StringVar(&checkBaseTS, "base-ts", "", "base commit time (RFC3339); resolved from the PR when omitted")
	checkCmd.Flags().StringVar(&checkCorpus, "corpus", "", "JSON failure corpus to search instead of the store")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the result as JSON")
	_ = checkCmd.MarkFlagRequired("job")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := openServices(ctx, checkCorpus)
	if err != nil {
		return err
	}
	defer svc.Close()

	rec, err := svc.resolve(ctx, checkJobID)
	if err != nil {
		return err
	}

	var base model.Timestamp
	switch {
	case checkBaseTS != "":
		base = model.ParseTimestamp(checkBaseTS)
		if !base.Valid {
			return fmt.Errorf("invalid --base-ts %q", checkBaseTS)
		}
	case rec.PRNumber != 0:
		base, err = svc.client.BaseCommitTime(ctx, rec.PRNumber)
		if err != nil {
			return fmt.Errorf("resolve base commit time of PR %d: %w", rec.PRNumber, err)
		}
	}

	classifierFailed, err := triage.IsLogClassifierFailed(ctx, rec, svc.logs)
	if err != nil {
		return err
	}

	verdict, err := svc.engine.FindSimilar(ctx, triage.Request{Job: &rec, BaseCommitTime: base})
	if err != nil {
		return fmt.Errorf("find similar failures: %w", err)
	}
	report := newCheckReport(rec, verdict)
	report.InfraFlaky = triage.IsInfraFlaky(rec)
	report.ClassifierFailed = classifierFailed

	if checkJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	renderCheck(cmd.OutOrStdout(), report)
	return nil
}
