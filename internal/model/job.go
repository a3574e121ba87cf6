package model

import (
	"fmt"
	"time"
)

type Job struct {
	ID           int64         `json:"id"`
	RunID        int64         `json:"run_id"`
	RunAttempt   int           `json:"run_attempt"`
	WorkflowName string        `json:"workflow_name"`
	Name         string        `json:"name"`
	HeadSHA      string        `json:"head_sha"`
	HeadBranch   string        `json:"head_branch"`
	Status       RunStatus     `json:"status"`
	Conclusion   RunConclusion `json:"conclusion"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  time.Time     `json:"completed_at"`
	Steps        []Step        `json:"steps"`
	RunnerName   string        `json:"runner_name"`
	HTMLURL      string        `json:"html_url"`
}

type Step struct {
	Name        string        `json:"name"`
	Status      RunStatus     `json:"status"`
	Conclusion  RunConclusion `json:"conclusion"`
	Number      int           `json:"number"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
}

type JobsResponse struct {
	TotalCount int   `json:"total_count"`
	Jobs       []Job `json:"jobs"`
}

func (j Job) Failed() bool {
	return j.Conclusion == ConclusionFailure
}

// DisplayName mirrors the "workflow / job" form shown on the PR checks tab.
func (j Job) DisplayName() string {
	if j.WorkflowName == "" {
		return j.Name
	}
	return fmt.Sprintf("%s / %s", j.WorkflowName, j.Name)
}

// Record converts an API job into a record. The run ID stands in for the
// workflow identifier, marking the record as a job rather than a run. Failure
// captures and lines are not part of the API payload; callers merge them in
// from the classifier corpus.
func (j Job) Record(run Run) JobRecord {
	workflowID := j.RunID
	rec := JobRecord{
		ID:               j.ID,
		WorkflowID:       &workflowID,
		JobName:          j.Name,
		Name:             j.DisplayName(),
		Conclusion:       j.Conclusion,
		HeadSHA:          j.HeadSHA,
		HeadBranch:       j.HeadBranch,
		PRNumber:         run.PRNumber(),
		CompletedAt:      TimestampOf(j.CompletedAt),
		HeadSHATimestamp: run.HeadTimestamp(),
		RunnerName:       j.RunnerName,
		HTMLURL:          j.HTMLURL,
	}
	if rec.HeadSHA == "" {
		rec.HeadSHA = run.HeadSHA
	}
	if rec.HeadBranch == "" {
		rec.HeadBranch = run.HeadBranch
	}
	if run.HeadCommit != nil {
		rec.AuthorEmail = run.HeadCommit.Author.Email
	}
	return rec
}
