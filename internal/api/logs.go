package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/altin/gha-triage/internal/cache"
	"github.com/altin/gha-triage/internal/model"
)

// HasJobLog reports whether GitHub still holds the raw log of a job. The log
// endpoint answers with a redirect to the blob when it exists.
func (c *Client) HasJobLog(ctx context.Context, jobID int64) (bool, error) {
	resp, err := c.requestJobLog(ctx, jobID)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusFound, http.StatusTemporaryRedirect:
		return true, nil
	case http.StatusNotFound, http.StatusGone:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status %d checking log of job %d", resp.StatusCode, jobID)
	}
}

// DownloadJobLog downloads the log for a specific job.
func (c *Client) DownloadJobLog(ctx context.Context, jobID int64) (io.ReadCloser, error) {
	resp, err := c.requestJobLog(ctx, jobID)
	if err != nil {
		return nil, err
	}

	// Follow the redirect to the blob URL (no auth needed)
	if resp.StatusCode == http.StatusFound || resp.StatusCode == http.StatusTemporaryRedirect {
		location := resp.Header.Get("Location")
		resp.Body.Close()
		if location == "" {
			return nil, fmt.Errorf("redirect with no Location header")
		}
		redirectReq, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, fmt.Errorf("create redirect request: %w", err)
		}
		resp, err = http.DefaultClient.Do(redirectReq)
		if err != nil {
			return nil, fmt.Errorf("follow redirect: %w", err)
		}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d downloading log of job %d", resp.StatusCode, jobID)
	}
	return resp.Body, nil
}

func (c *Client) requestJobLog(ctx context.Context, jobID int64) (*http.Response, error) {
	url := c.base + c.repoPath(fmt.Sprintf("actions/jobs/%d/logs", jobID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build log request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("log request failed: %w", err)
	}
	return resp, nil
}

// LogChecker answers log existence from the local cache first and from
// GitHub otherwise. With Prefetch set, logs found remotely are downloaded
// into the cache.
type LogChecker struct {
	Client   *Client
	Cache    *cache.LogCache
	Prefetch bool
}

func (l LogChecker) HasLog(ctx context.Context, job model.JobRecord) (bool, error) {
	if l.Cache != nil && l.Cache.HasJobLog(job.ID) {
		return true, nil
	}
	ok, err := l.Client.HasJobLog(ctx, job.ID)
	if err != nil || !ok {
		return ok, err
	}
	if l.Prefetch && l.Cache != nil {
		rc, err := l.Client.DownloadJobLog(ctx, job.ID)
		if err != nil {
			return true, fmt.Errorf("prefetch log of job %d: %w", job.ID, err)
		}
		defer rc.Close()
		if err := l.Cache.StoreJobLog(job.ID, rc); err != nil {
			return true, fmt.Errorf("cache log of job %d: %w", job.ID, err)
		}
	}
	return true, nil
}

// Log returns the job's raw log, serving it from the cache when present and
// caching a fresh download otherwise.
func (l LogChecker) Log(ctx context.Context, jobID int64) (string, error) {
	if l.Cache != nil && l.Cache.HasJobLog(jobID) {
		return l.Cache.GetJobLog(jobID)
	}
	rc, err := l.Client.DownloadJobLog(ctx, jobID)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	if l.Cache == nil {
		data, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("read log of job %d: %w", jobID, err)
		}
		return string(data), nil
	}
	if err := l.Cache.StoreJobLog(jobID, rc); err != nil {
		return "", fmt.Errorf("cache log of job %d: %w", jobID, err)
	}
	return l.Cache.GetJobLog(jobID)
}
