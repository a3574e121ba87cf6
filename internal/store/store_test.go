package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altin/gha-triage/internal/model"
)

const insertRecord = `INSERT INTO job_failures
	(id, workflow_id, name, conclusion, head_sha, head_branch, completed_at, head_sha_timestamp, failure_captures, failure_lines)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type row struct {
	id         int64
	workflowID any
	conclusion string
	completed  string
	captures   string
}

func seed(t *testing.T, db *sql.DB, rows ...row) {
	t.Helper()
	_, err := db.Exec(Schema)
	require.NoError(t, err)
	for _, r := range rows {
		_, err := db.Exec(insertRecord, r.id, r.workflowID, "pull / test", r.conclusion,
			"sha", "main", r.completed, "2024-01-09T00:00:00Z", r.captures, `["line"]`)
		require.NoError(t, err)
	}
}

func memoryStore(t *testing.T, rows ...row) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	seed(t, db, rows...)

	s, err := New(db, "sqlite")
	require.NoError(t, err)
	return s
}

func window() model.SimilarQuery {
	return model.SimilarQuery{
		Start:      time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		MaxResults: 10,
		Sort:       model.OldestFirst,
	}
}

func ids(records []model.JobRecord) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestSearchSimilar(t *testing.T) {
	s := memoryStore(t,
		row{1, 10, "failure", "2024-01-09T18:00:00Z", `["RuntimeError: X"]`},
		row{2, 11, "failure", "2024-01-09T02:00:00Z", `["runtimeerror: x", "other"]`},
		row{3, 12, "success", "2024-01-09T03:00:00Z", `["RuntimeError: X"]`},
		row{4, 13, "failure", "2024-01-10T00:00:00Z", `["RuntimeError: X"]`},
		row{5, 14, "failure", "0", `["RuntimeError: X"]`},
		row{6, nil, "failure", "2024-01-09T05:00:00Z", `["AssertionError"]`},
	)

	q := window()
	q.FailureCaptures = []string{"RuntimeError: X"}
	got, err := s.SearchSimilar(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids(got))

	q.Sort = model.NewestFirst
	q.MaxResults = 1
	got, err = s.SearchSimilar(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(got))
}

func TestSearchSimilarEscapesLikeWildcards(t *testing.T) {
	s := memoryStore(t,
		row{1, 10, "failure", "2024-01-09T01:00:00Z", `["100% done"]`},
		row{2, 11, "failure", "2024-01-09T02:00:00Z", `["100 done"]`},
		row{3, 12, "failure", "2024-01-09T03:00:00Z", `["KeyError: \"weight\""]`},
	)

	q := window()
	q.FailureCaptures = []string{"100%"}
	got, err := s.SearchSimilar(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(got))

	q.FailureCaptures = []string{`KeyError: "weight"`}
	got, err = s.SearchSimilar(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids(got))
}

func TestSearchSimilarUnescapedHTMLCharacters(t *testing.T) {
	s := memoryStore(t,
		row{1, 10, "failure", "2024-01-09T01:00:00Z", `["AssertionError: 1 < 2"]`},
		row{2, 11, "failure", "2024-01-09T02:00:00Z", `["File \"<string>\", line 1 && x -> y"]`},
	)

	q := window()
	q.FailureCaptures = []string{"AssertionError: 1 < 2"}
	got, err := s.SearchSimilar(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(got))

	q.FailureCaptures = []string{`File "<string>", line 1 && x -> y`}
	got, err = s.SearchSimilar(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(got))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%1 < 2 && a->b%`, likePattern("1 < 2 && a->b"))
	assert.Equal(t, `%\\"x\\"%`, likePattern(`"x"`))
	assert.Equal(t, `%50\% \_x%`, likePattern("50% _x"))
}

func TestSearchSimilarNoCaptures(t *testing.T) {
	s := memoryStore(t, row{1, 10, "failure", "2024-01-09T01:00:00Z", `["boom"]`})

	got, err := s.SearchSimilar(context.Background(), window())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGet(t *testing.T) {
	s := memoryStore(t,
		row{1, 10, "failure", "2024-01-09T01:00:00Z", `["boom"]`},
		row{2, nil, "failure", "0", `[]`},
	)

	rec, err := s.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, rec.IsJob())
	assert.Equal(t, []string{"boom"}, rec.FailureCaptures)
	assert.Equal(t, []string{"line"}, rec.FailureLines)
	assert.True(t, rec.HeadSHATimestamp.Valid)

	run, err := s.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, run.IsJob())
	assert.False(t, run.CompletedAt.Valid)

	_, err = s.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenIsReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	seed(t, db, row{1, 10, "failure", "2024-01-09T01:00:00Z", `["boom"]`})
	require.NoError(t, db.Close())

	s, err := Open(context.Background(), "sqlite", path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(context.Background(), 1)
	require.NoError(t, err)

	_, err = s.db.Exec(`DELETE FROM job_failures`)
	assert.Error(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.Error(t, err)
}

