package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/altin/gha-triage/internal/model"
)

const recordColumns = `id, workflow_id, job_name, name, conclusion, head_sha, head_branch, pr_number,
	completed_at, head_sha_timestamp, failure_captures, failure_lines, failure_context,
	runner_name, author_email, html_url`

// timeLayout matches how the corpus writes timestamps.
const timeLayout = "2006-01-02T15:04:05Z"

// Get returns one record by job ID.
func (s *Store) Get(ctx context.Context, id int64) (model.JobRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM job_failures WHERE id = "+s.dialect.placeholder(1), id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.JobRecord{}, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("get job %d: %w", id, err)
	}
	return rec, nil
}

// SearchSimilar returns failed records completed inside the window whose
// captures contain every query capture, case-insensitively, in the
// requested order.
func (s *Store) SearchSimilar(ctx context.Context, q model.SimilarQuery) ([]model.JobRecord, error) {
	if len(q.FailureCaptures) == 0 {
		return nil, nil
	}

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return s.dialect.placeholder(len(args))
	}
	where = append(where,
		"conclusion = "+arg(string(model.ConclusionFailure)),
		"completed_at >= "+arg(q.Start.UTC().Format(timeLayout)),
		"completed_at < "+arg(q.End.UTC().Format(timeLayout)),
	)
	for _, c := range q.FailureCaptures {
		where = append(where, fmt.Sprintf("failure_captures %s %s ESCAPE '\\'", s.dialect.like, arg(likePattern(c))))
	}

	order := "ASC"
	if q.Sort == model.NewestFirst {
		order = "DESC"
	}
	query := fmt.Sprintf("SELECT %s FROM job_failures WHERE %s ORDER BY completed_at %s, id %s",
		recordColumns, strings.Join(where, " AND "), order, order)
	if q.MaxResults > 0 {
		query += " LIMIT " + arg(q.MaxResults)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query similar failures: %w", err)
	}
	defer rows.Close()

	var out []model.JobRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// likePattern matches a capture inside the JSON-encoded captures column.
// Corpus writers store <, > and & unescaped, so the pattern must too.
func likePattern(capture string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(capture)
	encoded := bytes.TrimSpace(buf.Bytes())
	inner := string(encoded[1 : len(encoded)-1])
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(inner) + "%"
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (model.JobRecord, error) {
	var (
		rec                           model.JobRecord
		workflowID                    sql.NullInt64
		conclusion                    string
		completedAt, headSHATimestamp string
		captures, lines, failureCtx   string
	)
	err := sc.Scan(&rec.ID, &workflowID, &rec.JobName, &rec.Name, &conclusion, &rec.HeadSHA, &rec.HeadBranch,
		&rec.PRNumber, &completedAt, &headSHATimestamp, &captures, &lines, &failureCtx,
		&rec.RunnerName, &rec.AuthorEmail, &rec.HTMLURL)
	if err != nil {
		return model.JobRecord{}, err
	}
	if workflowID.Valid {
		id := workflowID.Int64
		rec.WorkflowID = &id
	}
	rec.Conclusion = model.RunConclusion(conclusion)
	rec.CompletedAt = model.ParseTimestamp(completedAt)
	rec.HeadSHATimestamp = model.ParseTimestamp(headSHATimestamp)
	if rec.FailureCaptures, err = decodeList(captures); err != nil {
		return model.JobRecord{}, fmt.Errorf("failure_captures of job %d: %w", rec.ID, err)
	}
	if rec.FailureLines, err = decodeList(lines); err != nil {
		return model.JobRecord{}, fmt.Errorf("failure_lines of job %d: %w", rec.ID, err)
	}
	if rec.FailureContext, err = decodeList(failureCtx); err != nil {
		return model.JobRecord{}, fmt.Errorf("failure_context of job %d: %w", rec.ID, err)
	}
	return rec, nil
}

func decodeList(s string) ([]string, error) {
	if s == "" || s == "null" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

