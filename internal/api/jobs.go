package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/altin/gha-triage/internal/model"
)

type JobsFilter struct {
	Filter  string // "latest", "all"
	PerPage int
	Page    int
}

func (f JobsFilter) QueryString() string {
	v := url.Values{}
	if f.Filter != "" {
		v.Set("filter", f.Filter)
	}
	if f.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(f.PerPage))
	} else {
		v.Set("per_page", "100")
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if qs := v.Encode(); qs != "" {
		return "?" + qs
	}
	return ""
}

func (c *Client) ListJobs(ctx context.Context, runID int64, filter JobsFilter) (*model.JobsResponse, error) {
	var resp model.JobsResponse
	path := fmt.Sprintf("actions/runs/%d/jobs%s", runID, filter.QueryString())
	err := c.get(ctx, path, &resp)
	if err != nil {
		// Run may have been deleted, treat 404 as empty
		if errors.Is(err, ErrNotFound) {
			return &model.JobsResponse{}, nil
		}
		return nil, fmt.Errorf("list jobs for run %d: %w", runID, err)
	}
	return &resp, nil
}

// ListAllJobs pages through every job of the run's latest attempt.
func (c *Client) ListAllJobs(ctx context.Context, runID int64) ([]model.Job, error) {
	var jobs []model.Job
	filter := JobsFilter{Filter: "latest", PerPage: 100, Page: 1}
	for {
		resp, err := c.ListJobs(ctx, runID, filter)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, resp.Jobs...)
		if len(resp.Jobs) < filter.PerPage || len(jobs) >= resp.TotalCount {
			return jobs, nil
		}
		filter.Page++
	}
}

func (c *Client) GetJob(ctx context.Context, jobID int64) (*model.Job, error) {
	var job model.Job
	err := c.get(ctx, fmt.Sprintf("actions/jobs/%d", jobID), &job)
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", jobID, err)
	}
	return &job, nil
}

func (c *Client) GetRun(ctx context.Context, runID int64) (*model.Run, error) {
	var run model.Run
	err := c.get(ctx, fmt.Sprintf("actions/runs/%d", runID), &run)
	if err != nil {
		return nil, fmt.Errorf("get run %d: %w", runID, err)
	}
	return &run, nil
}
