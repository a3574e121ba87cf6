package model

import "time"

type SortOrder string

const (
	OldestFirst SortOrder = "asc"
	NewestFirst SortOrder = "desc"
)

// SimilarQuery asks the failure corpus for records sharing a failure
// signature inside [Start, End).
type SimilarQuery struct {
	FailureCaptures []string
	JobName         string
	Name            string
	Start           time.Time
	End             time.Time
	MaxResults      int
	Sort            SortOrder
}

// InWindow reports whether t falls in the half-open query window.
func (q SimilarQuery) InWindow(t time.Time) bool {
	return !t.Before(q.Start) && t.Before(q.End)
}
