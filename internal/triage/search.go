package triage

import (
	"context"

	"github.com/altin/gha-triage/internal/model"
)

// Searcher is the historical failure corpus. Implementations must return
// records matching the query's failure signature inside the window, ordered
// oldest first and capped at MaxResults. The ordering is part of the
// contract: the engine attributes "first observed" to the earliest record and
// the revert guard depends on seeing it before anything later.
type Searcher interface {
	SearchSimilar(ctx context.Context, q model.SimilarQuery) ([]model.JobRecord, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, q model.SimilarQuery) ([]model.JobRecord, error)

func (f SearcherFunc) SearchSimilar(ctx context.Context, q model.SimilarQuery) ([]model.JobRecord, error) {
	return f(ctx, q)
}

func similarQuery(job model.JobRecord, w Window, maxResults int) model.SimilarQuery {
	return model.SimilarQuery{
		FailureCaptures: job.FailureCaptures,
		JobName:         job.JobName,
		Name:            job.Name,
		Start:           w.Start,
		End:             w.End,
		MaxResults:      maxResults,
		Sort:            model.OldestFirst,
	}
}
