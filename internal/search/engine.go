// Package search is an in-memory historical failure corpus.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/altin/gha-triage/internal/model"
)

type Engine struct {
	records       []model.JobRecord
	caseSensitive bool
}

type Option func(*Engine)

// CaseSensitive makes capture matching case sensitive.
func CaseSensitive() Option { return func(e *Engine) { e.caseSensitive = true } }

func New(records []model.JobRecord, opts ...Option) *Engine {
	e := &Engine{records: append([]model.JobRecord(nil), records...)}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Load reads a corpus from a JSON array of records.
func Load(path string, opts ...Option) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var records []model.JobRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode corpus %s: %w", path, err)
	}
	return New(records, opts...), nil
}

// Get returns the record with the given ID.
func (e *Engine) Get(id int64) (model.JobRecord, bool) {
	for _, r := range e.records {
		if r.ID == id {
			return r, true
		}
	}
	return model.JobRecord{}, false
}

func (e *Engine) Len() int { return len(e.records) }

// SearchSimilar returns failed records completed inside the query window
// whose failure captures contain every query capture, ordered by completion
// time then ID. Records without a completion time never match, as in the
// SQL store.
func (e *Engine) SearchSimilar(ctx context.Context, q model.SimilarQuery) ([]model.JobRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(q.FailureCaptures) == 0 {
		return nil, nil
	}
	matcher := buildMatcher(q.FailureCaptures, e.caseSensitive)

	var matches []model.JobRecord
	for _, r := range e.records {
		if !r.Failed() || !r.CompletedAt.Valid || !q.InWindow(r.CompletedAt.Time) {
			continue
		}
		if !matcher(r.FailureCaptures) {
			continue
		}
		matches = append(matches, r)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if q.Sort == model.NewestFirst {
			a, b = b, a
		}
		if !a.CompletedAt.Time.Equal(b.CompletedAt.Time) {
			return a.CompletedAt.Time.Before(b.CompletedAt.Time)
		}
		return a.ID < b.ID
	})
	if q.MaxResults > 0 && len(matches) > q.MaxResults {
		matches = matches[:q.MaxResults]
	}
	return matches, nil
}

func buildMatcher(tokens []string, caseSensitive bool) func([]string) bool {
	want := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !caseSensitive {
			t = strings.ToLower(t)
		}
		want = append(want, t)
	}
	return func(captures []string) bool {
		haystack := strings.Join(captures, "\n")
		if !caseSensitive {
			haystack = strings.ToLower(haystack)
		}
		for _, t := range want {
			if !strings.Contains(haystack, t) {
				return false
			}
		}
		return true
	}
}
