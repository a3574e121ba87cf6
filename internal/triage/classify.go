package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/altin/gha-triage/internal/model"
)

// LogChecker reports whether a raw log artifact exists for a job.
type LogChecker interface {
	HasLog(ctx context.Context, job model.JobRecord) (bool, error)
}

// IsInfraFlaky reports a failed job that never really ran: no failure lines
// and no runner assignment. Workflow runs are never infra flaky; GitHub
// failing to start a whole workflow is not something to wave through.
func IsInfraFlaky(job model.JobRecord) bool {
	return job.Failed() &&
		job.IsJob() &&
		!job.HasFailureLines() &&
		job.RunnerName == ""
}

// IsLogClassifierFailed reports a failed job for which the log classifier
// produced nothing usable, either because it found no failure lines or
// because there is no raw log to classify.
func IsLogClassifierFailed(ctx context.Context, job model.JobRecord, logs LogChecker) (bool, error) {
	if !job.IsJob() {
		return false, nil
	}
	if !job.Failed() {
		return false, nil
	}
	if !job.HasFailureLines() {
		return true, nil
	}
	hasLog, err := logs.HasLog(ctx, job)
	if err != nil {
		return false, fmt.Errorf("check log for job %d: %w", job.ID, err)
	}
	return !hasLog, nil
}

// Excluded reports whether the job's display name contains, case-insensitively,
// any of the policy's exclusion fragments.
func (p Policy) Excluded(job model.JobRecord) bool {
	if job.Name == "" {
		return false
	}
	name := strings.ToLower(job.Name)
	for _, e := range p.normalized().Exclusions {
		if strings.Contains(name, e) {
			return true
		}
	}
	return false
}
