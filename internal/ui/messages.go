package ui

import (
	"github.com/altin/gha-triage/internal/ops"
)

// Triage messages
type TriageProgressMsg struct {
	Completed int
	Total     int
}

type TriageDoneMsg struct {
	Result *ops.Result
	Err    error
}

type JobLogLoadedMsg struct {
	JobID   int64
	JobName string
	Content string
	Err     error
}

type StatusMsg struct {
	Text string
}
