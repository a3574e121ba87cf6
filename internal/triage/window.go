package triage

import (
	"time"

	"github.com/altin/gha-triage/internal/model"
)

// Window is the half-open interval [Start, End) searched for prior failures.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Span() time.Duration {
	return w.End.Sub(w.Start)
}

type WindowRejection int

const (
	WindowOK WindowRejection = iota
	WindowNoAnchor
	WindowTooWide
)

func (r WindowRejection) String() string {
	switch r {
	case WindowOK:
		return "ok"
	case WindowNoAnchor:
		return "no anchor"
	case WindowTooWide:
		return "window too wide"
	default:
		return "unknown"
	}
}

// SelectWindow computes the search window for a job. The end is the job's
// head commit time; completion time is never used because reruns skew it.
// The start is the base commit time, or the head commit time when the base
// is unknown, minus lookback. Spans above maxWindow are rejected: a base
// commit that old makes correlation untrustworthy.
func SelectWindow(head, base model.Timestamp, lookback, maxWindow time.Duration) (Window, WindowRejection) {
	if !head.Valid {
		return Window{}, WindowNoAnchor
	}
	from := head.Time
	if base.Valid {
		from = base.Time
	}
	w := Window{Start: from.Add(-lookback), End: head.Time}
	if w.Span() > maxWindow {
		return w, WindowTooWide
	}
	return w, WindowOK
}
