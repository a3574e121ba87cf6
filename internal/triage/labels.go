package triage

import "github.com/altin/gha-triage/internal/model"

// SuppressionTable maps a job name to the PR labels that silence its failures.
type SuppressionTable map[string][]string

func DefaultSuppressionTable() SuppressionTable {
	return SuppressionTable{
		"bc_linter": {"suppress-bc-linter", "suppress-api-compatibility-check"},
	}
}

// SuppressedLabels returns the labels present on the PR that suppress this
// job, in table order.
func (t SuppressionTable) SuppressedLabels(job model.JobRecord, labels []string) []string {
	if job.JobName == "" {
		return nil
	}
	suppressors, ok := t[job.JobName]
	if !ok {
		return nil
	}
	present := make(map[string]bool, len(labels))
	for _, l := range labels {
		present[l] = true
	}
	var out []string
	for _, s := range suppressors {
		if present[s] {
			out = append(out, s)
		}
	}
	return out
}
