package model

import "time"

type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusWaiting    RunStatus = "waiting"
	RunStatusRequested  RunStatus = "requested"
	RunStatusPending    RunStatus = "pending"
)

type RunConclusion string

const (
	ConclusionSuccess   RunConclusion = "success"
	ConclusionFailure   RunConclusion = "failure"
	ConclusionCancelled RunConclusion = "cancelled"
	ConclusionSkipped   RunConclusion = "skipped"
	ConclusionTimedOut  RunConclusion = "timed_out"
	ConclusionNeutral   RunConclusion = "neutral"
)

type Run struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	DisplayTitle string           `json:"display_title"`
	Status       RunStatus        `json:"status"`
	Conclusion   RunConclusion    `json:"conclusion"`
	WorkflowID   int64            `json:"workflow_id"`
	RunNumber    int              `json:"run_number"`
	RunAttempt   int              `json:"run_attempt"`
	Event        string           `json:"event"`
	HeadBranch   string           `json:"head_branch"`
	HeadSHA      string           `json:"head_sha"`
	HeadCommit   *HeadCommit      `json:"head_commit"`
	Actor        Actor            `json:"actor"`
	PullRequests []PullRequestRef `json:"pull_requests"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	RunStartedAt time.Time        `json:"run_started_at"`
	HTMLURL      string           `json:"html_url"`
}

type Actor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// HeadCommit is the abbreviated commit GitHub embeds in a run payload.
type HeadCommit struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Author    CommitAuthor `json:"author"`
}

type RunsResponse struct {
	TotalCount int   `json:"total_count"`
	Runs       []Run `json:"workflow_runs"`
}

func (r Run) ShortSHA() string {
	if len(r.HeadSHA) >= 7 {
		return r.HeadSHA[:7]
	}
	return r.HeadSHA
}

// PRNumber returns the first pull request the run was triggered for, or 0.
func (r Run) PRNumber() int {
	if len(r.PullRequests) == 0 {
		return 0
	}
	return r.PullRequests[0].Number
}

// HeadTimestamp is the head commit time when GitHub included it in the payload.
func (r Run) HeadTimestamp() Timestamp {
	if r.HeadCommit == nil {
		return Timestamp{}
	}
	return TimestampOf(r.HeadCommit.Timestamp)
}

// Record converts a failed workflow run into a record. Runs carry no
// workflow identifier, which keeps them out of the per-job heuristics.
func (r Run) Record() JobRecord {
	rec := JobRecord{
		ID:               r.ID,
		Name:             r.Name,
		JobName:          r.Name,
		Conclusion:       r.Conclusion,
		HeadSHA:          r.HeadSHA,
		HeadBranch:       r.HeadBranch,
		PRNumber:         r.PRNumber(),
		CompletedAt:      TimestampOf(r.UpdatedAt),
		HeadSHATimestamp: r.HeadTimestamp(),
		HTMLURL:          r.HTMLURL,
	}
	if r.HeadCommit != nil {
		rec.AuthorEmail = r.HeadCommit.Author.Email
	}
	return rec
}
