package triage

import (
	"context"

	"github.com/altin/gha-triage/internal/model"
)

type fakeSearch struct {
	records []model.JobRecord
	err     error
	queries []model.SimilarQuery
}

func (f *fakeSearch) SearchSimilar(_ context.Context, q model.SimilarQuery) ([]model.JobRecord, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.JobRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

type fakeCommits struct {
	shas  []string
	err   error
	calls int
}

func (f *fakeCommits) MergeCommits(context.Context, model.JobRecord) ([]string, error) {
	f.calls++
	return f.shas, f.err
}

// fakeAuthors compares AuthorEmail and records which candidates it was asked about.
type fakeAuthors struct {
	err   error
	calls []int64
}

func (f *fakeAuthors) SameAuthor(_ context.Context, a, b *model.JobRecord) (bool, error) {
	f.calls = append(f.calls, b.ID)
	if f.err != nil {
		return false, f.err
	}
	return a.AuthorEmail == b.AuthorEmail, nil
}

type fakeLogs struct {
	has bool
	err error
}

func (f fakeLogs) HasLog(context.Context, model.JobRecord) (bool, error) {
	return f.has, f.err
}

func int64p(v int64) *int64 { return &v }
