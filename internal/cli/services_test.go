package cli

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	ghAPI "github.com/cli/go-gh/v2/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altin/gha-triage/internal/api"
	"github.com/altin/gha-triage/internal/search"
)

const repoPrefix = "/repos/pytorch/pytorch/"

type route struct {
	status int
	body   string
}

// routeTransport answers by URL path; unknown paths are 404.
type routeTransport map[string]route

func (rt routeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r, ok := rt[req.URL.Path]
	if !ok {
		r = route{status: http.StatusNotFound, body: `{"message":"Not Found"}`}
	}
	h := http.Header{}
	h.Set("Content-Type", "application/json; charset=utf-8")
	return &http.Response{
		StatusCode: r.status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(r.body)),
		Request:    req,
	}, nil
}

func testServices(t *testing.T, routes routeTransport) *services {
	t.Helper()
	client, err := api.NewClientWithOptions("pytorch", "pytorch", ghAPI.ClientOptions{
		Host:      "github.com",
		AuthToken: "test-token",
		Transport: routes,
	})
	require.NoError(t, err)
	return &services{client: client, corpus: search.New(nil)}
}

func TestPullContext(t *testing.T) {
	svc := testServices(t, routeTransport{
		repoPrefix + "pulls/1": {http.StatusOK, `{"number":1,"base":{"sha":"base1"},"labels":[{"name":"suppress-bc-linter"}]}`},
		repoPrefix + "commits/base1": {http.StatusOK, `{"sha":"base1","commit":{"committer":{"date":"2024-01-08T00:00:00Z"}}}`},
		repoPrefix + "pulls/2": {http.StatusOK, `{"number":2,"base":{"sha":""},"labels":[{"name":"ciflow/trunk"}]}`},
		repoPrefix + "pulls/3": {http.StatusOK, `{"number":3,"base":{"sha":"gone"}}`},
		repoPrefix + "pulls/4": {http.StatusInternalServerError, `{"message":"boom"}`},
	})
	ctx := context.Background()

	base, labels, err := svc.pullContext(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08T00:00:00Z", base.String())
	assert.Equal(t, []string{"suppress-bc-linter"}, labels)

	base, labels, err = svc.pullContext(ctx, 2)
	require.NoError(t, err)
	assert.False(t, base.Valid)
	assert.Equal(t, []string{"ciflow/trunk"}, labels)

	_, _, err = svc.pullContext(ctx, 3)
	assert.ErrorIs(t, err, api.ErrNotFound)

	_, _, err = svc.pullContext(ctx, 4)
	assert.Error(t, err)
}

func TestLoadRunFailsWhenBaseCommitUnresolved(t *testing.T) {
	svc := testServices(t, routeTransport{
		repoPrefix + "actions/runs/10": {http.StatusOK, `{"id":10,"name":"pull","conclusion":"failure",
			"head_sha":"abc1234","head_branch":"pr-5","pull_requests":[{"number":5}],
			"head_commit":{"timestamp":"2024-01-10T00:00:00Z"}}`},
		repoPrefix + "actions/runs/10/jobs": {http.StatusOK, `{"total_count":1,"jobs":[
			{"id":7,"run_id":10,"name":"test","conclusion":"failure","runner_name":"r1"}]}`},
		repoPrefix + "pulls/5": {http.StatusInternalServerError, `{"message":"boom"}`},
	})

	in, err := svc.loadRun(context.Background(), 10, 0)
	assert.Error(t, err)
	assert.Nil(t, in)
}

func TestLoadRunHeadAnchoredWithoutBaseSHA(t *testing.T) {
	svc := testServices(t, routeTransport{
		repoPrefix + "actions/runs/10": {http.StatusOK, `{"id":10,"name":"pull","conclusion":"failure",
			"head_sha":"abc1234","head_branch":"pr-5","pull_requests":[{"number":5}],
			"head_commit":{"timestamp":"2024-01-10T00:00:00Z"}}`},
		repoPrefix + "actions/runs/10/jobs": {http.StatusOK, `{"total_count":2,"jobs":[
			{"id":7,"run_id":10,"name":"test","conclusion":"failure","runner_name":"r1"},
			{"id":8,"run_id":10,"name":"build","conclusion":"success","runner_name":"r1"}]}`},
		repoPrefix + "pulls/5": {http.StatusOK, `{"number":5,"base":{"sha":""}}`},
	})

	in, err := svc.loadRun(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.False(t, in.base.Valid)
	require.Len(t, in.records, 1)
	assert.Equal(t, int64(7), in.records[0].ID)
	assert.Equal(t, 5, in.records[0].PRNumber)
}
