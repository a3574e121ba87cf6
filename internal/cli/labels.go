package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/altin/gha-triage/internal/model"
)

var (
	labelsJobName string
	labelsPR      []string
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Show which PR labels suppress a job's failures",
	Long: `Intersect the PR's labels with the labels configured to suppress
failures of the given job.

Examples:
  gha-triage labels --job-name bc_linter --label suppress-bc-linter,ciflow/trunk`,
	Args: cobra.NoArgs,
	RunE: runLabels,
}

func init() {
	labelsCmd.Flags().StringVar(&labelsJobName, "job-name", "", "job name as it appears in the workflow (required)")
	labelsCmd.Flags().StringSliceVarP(&labelsPR, "label", "l", nil, "labels on the pull request")
	_ = labelsCmd.MarkFlagRequired("job-name")
}

func runLabels(cmd *cobra.Command, args []string) error {
	got := cfg.Suppressions().SuppressedLabels(model.JobRecord{JobName: labelsJobName}, labelsPR)
	if len(got) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No suppressing labels.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(got, "\n"))
	return nil
}
