package ops

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altin/gha-triage/internal/model"
	"github.com/altin/gha-triage/internal/triage"
)

type fakeCorrelator struct {
	found  map[int64]bool
	errs   map[int64]error
	called []int64
}

func (f *fakeCorrelator) FindSimilar(_ context.Context, req triage.Request) (triage.Verdict, error) {
	f.called = append(f.called, req.Job.ID)
	if err := f.errs[req.Job.ID]; err != nil {
		return triage.Verdict{}, err
	}
	if f.found[req.Job.ID] {
		match := model.JobRecord{ID: req.Job.ID + 1000}
		return triage.Verdict{Outcome: triage.OutcomeAccepted, Match: &match}, nil
	}
	return triage.Verdict{Outcome: triage.OutcomeExhausted}, nil
}

func (f *fakeCorrelator) Policy() triage.Policy { return triage.DefaultPolicy() }

type fakeLogs map[int64]bool

func (f fakeLogs) HasLog(_ context.Context, job model.JobRecord) (bool, error) {
	return f[job.ID], nil
}

func job(id int64, name string, lines []string, runner string) model.JobRecord {
	wf := int64(1)
	return model.JobRecord{
		ID:           id,
		WorkflowID:   &wf,
		Name:         name,
		JobName:      name,
		Conclusion:   model.ConclusionFailure,
		FailureLines: lines,
		RunnerName:   runner,
	}
}

func TestFilterFailed(t *testing.T) {
	records := []model.JobRecord{
		{ID: 1, Conclusion: model.ConclusionFailure},
		{ID: 2, Conclusion: model.ConclusionSuccess},
		{ID: 3, Conclusion: model.ConclusionCancelled},
		{ID: 4, Conclusion: model.ConclusionFailure},
	}
	got := FilterFailed(records)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)
}

func TestBatchRunCategories(t *testing.T) {
	lines := []string{"FAILED test_ops.py::test_add"}
	records := []model.JobRecord{
		job(1, "pull / lint", lines, "r1"),
		job(2, "trunk / test", nil, ""),
		job(3, "trunk / test (default, 1, 2)", nil, "r3"),
		job(4, "trunk / test (default, 2, 2)", lines, "r4"),
		job(5, "trunk / build", lines, "r5"),
		job(6, "trunk / cuda", lines, "r6"),
	}
	corr := &fakeCorrelator{found: map[int64]bool{5: true}}
	logs := fakeLogs{5: true, 6: true}

	var progress []int
	res, err := Batch{Engine: corr, Logs: logs}.Run(context.Background(), records, func(done, total int) {
		assert.Equal(t, len(records), total)
		progress = append(progress, done)
	})
	require.NoError(t, err)

	want := []Category{
		CategoryExcluded,
		CategoryInfraFlaky,
		CategoryClassifierFailed,
		CategoryClassifierFailed,
		CategoryFlaky,
		CategoryNewFailure,
	}
	require.Len(t, res.Items, len(want))
	for i, w := range want {
		assert.Equal(t, w, res.Items[i].Category, "job %d", res.Items[i].Record.ID)
	}
	assert.Equal(t, []int64{5, 6}, corr.called, "engine consulted only after cheap checks")
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, progress)
	assert.Equal(t, 6, res.Completed)
	assert.Equal(t, int64(1005), res.Items[4].Verdict.Match.ID)
	assert.Equal(t, 2, res.Counts()[CategoryClassifierFailed])
}

func TestBatchRunWithoutLogChecker(t *testing.T) {
	corr := &fakeCorrelator{}
	res, err := Batch{Engine: corr}.Run(context.Background(), []model.JobRecord{job(1, "trunk / test", nil, "r1")}, nil)
	require.NoError(t, err)
	assert.Equal(t, CategoryNewFailure, res.Items[0].Category)
}

func TestBatchRunCollectsErrors(t *testing.T) {
	boom := errors.New("search unavailable")
	corr := &fakeCorrelator{errs: map[int64]error{1: boom}}
	records := []model.JobRecord{
		job(1, "trunk / a", nil, "r1"),
		job(2, "trunk / b", nil, "r2"),
	}

	res, err := Batch{Engine: corr}.Run(context.Background(), records, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Completed)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], boom)
	assert.Equal(t, CategoryError, res.Items[0].Category)
	assert.Equal(t, CategoryNewFailure, res.Items[1].Category)
}

func TestBatchRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	corr := &fakeCorrelator{}
	res, err := Batch{Engine: corr}.Run(ctx, []model.JobRecord{job(1, "trunk / a", nil, "r1")}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Items)
	assert.Empty(t, corr.called)
}

func TestBatchRunSuppressedLabels(t *testing.T) {
	corr := &fakeCorrelator{}
	b := Batch{
		Engine:       corr,
		Suppressions: triage.DefaultSuppressionTable(),
		Labels:       []string{"suppress-bc-linter", "ciflow/trunk"},
	}
	res, err := b.Run(context.Background(), []model.JobRecord{job(1, "bc_linter", nil, "r1")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"suppress-bc-linter"}, res.Items[0].Suppressed)
}
