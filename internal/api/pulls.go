package api

import (
	"context"
	"fmt"

	"github.com/altin/gha-triage/internal/model"
)

// mergeEvents are the issue events GitHub records with the commit that
// landed the PR.
var mergeEvents = map[string]bool{
	"merged": true,
	"closed": true,
}

func (c *Client) GetPull(ctx context.Context, number int) (*model.PullRequest, error) {
	var pr model.PullRequest
	if err := c.get(ctx, fmt.Sprintf("pulls/%d", number), &pr); err != nil {
		return nil, fmt.Errorf("get pull request %d: %w", number, err)
	}
	return &pr, nil
}

// BaseCommitTime is the committer date of the PR's base commit.
func (c *Client) BaseCommitTime(ctx context.Context, number int) (model.Timestamp, error) {
	pr, err := c.GetPull(ctx, number)
	if err != nil {
		return model.Timestamp{}, err
	}
	if pr.Base.SHA == "" {
		return model.Timestamp{}, nil
	}
	return c.CommitTime(ctx, pr.Base.SHA)
}

func (c *Client) ListIssueEvents(ctx context.Context, number int) ([]model.IssueEvent, error) {
	var all []model.IssueEvent
	for page := 1; ; page++ {
		var events []model.IssueEvent
		path := fmt.Sprintf("issues/%d/events?per_page=100&page=%d", number, page)
		if err := c.get(ctx, path, &events); err != nil {
			return nil, fmt.Errorf("list events for #%d: %w", number, err)
		}
		all = append(all, events...)
		if len(events) < 100 {
			return all, nil
		}
	}
}

// MergeCommits returns every commit that merged or closed the job's PR,
// including ones later reverted. Jobs outside a PR have none.
func (c *Client) MergeCommits(ctx context.Context, job model.JobRecord) ([]string, error) {
	if job.PRNumber == 0 {
		return nil, nil
	}
	events, err := c.ListIssueEvents(ctx, job.PRNumber)
	if err != nil {
		return nil, err
	}
	var shas []string
	seen := make(map[string]bool)
	for _, e := range events {
		if !mergeEvents[e.Event] || e.CommitID == "" || seen[e.CommitID] {
			continue
		}
		seen[e.CommitID] = true
		shas = append(shas, e.CommitID)
	}
	return shas, nil
}
