package triage

import (
	"context"

	"github.com/altin/gha-triage/internal/model"
)

// MergeCommitResolver returns every merge commit a pull request has had,
// including ones superseded by a revert and reland.
type MergeCommitResolver interface {
	MergeCommits(ctx context.Context, job model.JobRecord) ([]string, error)
}

// MergeCommits is a set of commit SHAs.
type MergeCommits map[string]struct{}

func NewMergeCommits(shas []string) MergeCommits {
	set := make(MergeCommits, len(shas))
	for _, sha := range shas {
		if sha != "" {
			set[sha] = struct{}{}
		}
	}
	return set
}

// FromPreviousMerge reports whether the candidate failed on one of the
// subject PR's own earlier merge commits. A PR that broke trunk, got
// reverted and is now relanding would otherwise match its own trunk failure.
func (m MergeCommits) FromPreviousMerge(candidate model.JobRecord) bool {
	if candidate.HeadSHA == "" {
		return false
	}
	_, ok := m[candidate.HeadSHA]
	return ok
}
