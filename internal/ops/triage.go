package ops

import (
	"context"
	"fmt"

	"github.com/altin/gha-triage/internal/model"
	"github.com/altin/gha-triage/internal/triage"
)

type Category string

const (
	CategoryExcluded         Category = "excluded"
	CategoryInfraFlaky       Category = "infra-flaky"
	CategoryClassifierFailed Category = "classifier-failed"
	CategoryFlaky            Category = "flaky"
	CategoryNewFailure       Category = "new-failure"
	CategoryError            Category = "error"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{
		CategoryFlaky,
		CategoryInfraFlaky,
		CategoryClassifierFailed,
		CategoryNewFailure,
		CategoryExcluded,
		CategoryError,
	}
}

type Correlator interface {
	FindSimilar(ctx context.Context, req triage.Request) (triage.Verdict, error)
	Policy() triage.Policy
}

type Triaged struct {
	Record     model.JobRecord
	Category   Category
	Verdict    triage.Verdict
	Suppressed []string
	Err        error
}

type Result struct {
	Items     []Triaged
	Completed int
	Failed    int
	Errors    []error
}

// Counts tallies items per category.
func (r *Result) Counts() map[Category]int {
	counts := make(map[Category]int)
	for _, it := range r.Items {
		counts[it.Category]++
	}
	return counts
}

// FilterFailed keeps the records whose conclusion is failure.
func FilterFailed(records []model.JobRecord) []model.JobRecord {
	var matched []model.JobRecord
	for _, r := range records {
		if r.Failed() {
			matched = append(matched, r)
		}
	}
	return matched
}

// Batch triages the failed jobs of one run. Logs may be nil, in which case
// the classifier check is skipped.
type Batch struct {
	Engine         Correlator
	Logs           triage.LogChecker
	Suppressions   triage.SuppressionTable
	Labels         []string
	BaseCommitTime model.Timestamp
}

// Run classifies each record in order. A failing record is reported in the
// result and does not stop the batch; cancellation does.
func (b Batch) Run(ctx context.Context, records []model.JobRecord, onProgress func(completed, total int)) (*Result, error) {
	result := &Result{}
	total := len(records)

	for i, rec := range records {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		item := b.classify(ctx, rec)
		if item.Err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("job %d: %w", rec.ID, item.Err))
		} else {
			result.Completed++
		}
		result.Items = append(result.Items, item)

		if onProgress != nil {
			onProgress(i+1, total)
		}
	}

	return result, nil
}

func (b Batch) classify(ctx context.Context, rec model.JobRecord) Triaged {
	item := Triaged{Record: rec}
	if b.Suppressions != nil {
		item.Suppressed = b.Suppressions.SuppressedLabels(rec, b.Labels)
	}

	if b.Engine.Policy().Excluded(rec) {
		item.Category = CategoryExcluded
		return item
	}
	if triage.IsInfraFlaky(rec) {
		item.Category = CategoryInfraFlaky
		return item
	}
	if b.Logs != nil {
		failed, err := triage.IsLogClassifierFailed(ctx, rec, b.Logs)
		if err != nil {
			item.Category, item.Err = CategoryError, err
			return item
		}
		if failed {
			item.Category = CategoryClassifierFailed
			return item
		}
	}

	v, err := b.Engine.FindSimilar(ctx, triage.Request{Job: &rec, BaseCommitTime: b.BaseCommitTime})
	if err != nil {
		item.Category, item.Err = CategoryError, err
		return item
	}
	item.Verdict = v
	if v.Found() {
		item.Category = CategoryFlaky
	} else {
		item.Category = CategoryNewFailure
	}
	return item
}
