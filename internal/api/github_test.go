package api

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altin/gha-triage/internal/cache"
	"github.com/altin/gha-triage/internal/model"
)

const prefix = "/repos/pytorch/pytorch/"

func TestMergeCommits(t *testing.T) {
	c, _ := newTestClient(t, map[string]fakeResponse{
		prefix + "issues/7/events": {status: http.StatusOK, body: `[
			{"id": 1, "event": "labeled"},
			{"id": 2, "event": "merged", "commit_id": "m1"},
			{"id": 3, "event": "closed", "commit_id": "m1"},
			{"id": 4, "event": "reopened"},
			{"id": 5, "event": "closed", "commit_id": "m2"},
			{"id": 6, "event": "referenced", "commit_id": "r1"},
			{"id": 7, "event": "closed", "commit_id": ""}
		]`},
	})

	shas, err := c.MergeCommits(context.Background(), model.JobRecord{PRNumber: 7})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, shas)

	shas, err = c.MergeCommits(context.Background(), model.JobRecord{})
	require.NoError(t, err)
	assert.Empty(t, shas)
}

func TestMergeCommitsNotFound(t *testing.T) {
	c, _ := newTestClient(t, nil)

	_, err := c.MergeCommits(context.Background(), model.JobRecord{PRNumber: 9})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSameAuthorResolvesLazily(t *testing.T) {
	c, ft := newTestClient(t, map[string]fakeResponse{
		prefix + "commits/bbb": {status: http.StatusOK, body: `{"sha":"bbb","commit":{"author":{"email":"Alice@Example.com"}}}`},
		prefix + "commits/ccc": {status: http.StatusOK, body: `{"sha":"ccc","commit":{"author":{"email":"bob@example.com"}}}`},
	})
	job := &model.JobRecord{HeadSHA: "aaa", AuthorEmail: "alice@example.com"}

	same := &model.JobRecord{HeadSHA: "bbb"}
	ok, err := c.SameAuthor(context.Background(), job, same)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Alice@Example.com", same.AuthorEmail)

	other := &model.JobRecord{HeadSHA: "ccc"}
	ok, err = c.SameAuthor(context.Background(), job, other)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.SameAuthor(context.Background(), job, same)
	require.NoError(t, err)
	assert.Equal(t, 1, ft.count(prefix+"commits/bbb"), "resolved author is reused")
	assert.Zero(t, ft.count(prefix+"commits/aaa"))
}

func TestSameAuthorUnknownIsNotSame(t *testing.T) {
	c, _ := newTestClient(t, nil)

	ok, err := c.SameAuthor(context.Background(), &model.JobRecord{}, &model.JobRecord{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBaseCommitTime(t *testing.T) {
	c, _ := newTestClient(t, map[string]fakeResponse{
		prefix + "pulls/7":       {status: http.StatusOK, body: `{"number":7,"base":{"ref":"main","sha":"base1"}}`},
		prefix + "commits/base1": {status: http.StatusOK, body: `{"sha":"base1","commit":{"committer":{"date":"2024-01-08T10:00:00Z"}}}`},
	})

	ts, err := c.BaseCommitTime(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08T10:00:00Z", ts.String())
}

func TestHasJobLog(t *testing.T) {
	c, _ := newTestClient(t, map[string]fakeResponse{
		prefix + "actions/jobs/1/logs": {status: http.StatusFound, location: "https://blob.example.com/1"},
		prefix + "actions/jobs/2/logs": {status: http.StatusGone},
		prefix + "actions/jobs/3/logs": {status: http.StatusInternalServerError},
	})

	ok, err := c.HasJobLog(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.HasJobLog(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.HasJobLog(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.HasJobLog(context.Background(), 3)
	assert.Error(t, err)
}

func TestLogCheckerPrefersCache(t *testing.T) {
	c, ft := newTestClient(t, nil)
	lc, err := cache.NewLogCache(t.TempDir(), 10, time.Hour)
	require.NoError(t, err)
	require.NoError(t, lc.StoreJobLog(5, strings.NewReader("cached log")))

	checker := LogChecker{Client: c, Cache: lc}
	ok, err := checker.HasLog(context.Background(), model.JobRecord{ID: 5})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, ft.count(prefix+"actions/jobs/5/logs"))

	ok, err = checker.HasLog(context.Background(), model.JobRecord{ID: 6})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, ft.count(prefix+"actions/jobs/6/logs"))
}

func TestListAllJobs(t *testing.T) {
	c, _ := newTestClient(t, map[string]fakeResponse{
		prefix + "actions/runs/10/jobs": {status: http.StatusOK, body: `{"total_count":2,"jobs":[
			{"id":1,"run_id":10,"name":"build","conclusion":"success"},
			{"id":2,"run_id":10,"name":"test","conclusion":"failure","runner_name":"r1"}
		]}`},
	})

	jobs, err := c.ListAllJobs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.True(t, jobs[1].Failed())

	jobs, err = c.ListAllJobs(context.Background(), 11)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestLogCheckerLogCachesDownload(t *testing.T) {
	c, ft := newTestClient(t, map[string]fakeResponse{
		prefix + "actions/jobs/3/logs": {status: http.StatusOK, body: "setup\nFAILED test_a\n"},
	})
	lc, err := cache.NewLogCache(t.TempDir(), 10, time.Hour)
	require.NoError(t, err)
	checker := LogChecker{Client: c, Cache: lc}

	for i := 0; i < 2; i++ {
		got, err := checker.Log(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "setup\nFAILED test_a\n", got)
	}
	assert.Equal(t, 1, ft.count(prefix+"actions/jobs/3/logs"))
	assert.True(t, lc.HasJobLog(3))
}

func TestGetJobRecord(t *testing.T) {
	c, _ := newTestClient(t, map[string]fakeResponse{
		prefix + "actions/jobs/7": {status: http.StatusOK, body: `{"id":7,"run_id":10,"workflow_name":"pull",
			"name":"test (default, 1, 2)","conclusion":"failure","head_sha":"abc1234","runner_name":""}`},
		prefix + "actions/runs/10": {status: http.StatusOK, body: `{"id":10,"name":"pull","head_sha":"abc1234",
			"head_branch":"pr-1","pull_requests":[{"number":42}],
			"head_commit":{"timestamp":"2024-01-10T00:00:00Z","author":{"email":"dev@example.com"}}}`},
	})

	job, err := c.GetJob(context.Background(), 7)
	require.NoError(t, err)
	run, err := c.GetRun(context.Background(), job.RunID)
	require.NoError(t, err)

	rec := job.Record(*run)
	assert.True(t, rec.IsJob())
	assert.Equal(t, "pull / test (default, 1, 2)", rec.Name)
	assert.Equal(t, 42, rec.PRNumber)
	assert.True(t, rec.HeadSHATimestamp.Valid)
	assert.Equal(t, "dev@example.com", rec.AuthorEmail)

	_, err = c.GetJob(context.Background(), 8)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogCheckerPrefetch(t *testing.T) {
	c, _ := newTestClient(t, map[string]fakeResponse{
		prefix + "actions/jobs/4/logs": {status: http.StatusOK, body: "FAILED test_b\n"},
	})
	lc, err := cache.NewLogCache(t.TempDir(), 10, time.Hour)
	require.NoError(t, err)

	checker := LogChecker{Client: c, Cache: lc, Prefetch: true}
	ok, err := checker.HasLog(context.Background(), model.JobRecord{ID: 4})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, lc.HasJobLog(4))
}
