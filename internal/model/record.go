package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// JobRecord is the normalized view of one CI execution used for failure
// correlation. A record without a WorkflowID is a workflow run, not a job.
type JobRecord struct {
	ID               int64         `json:"id"`
	WorkflowID       *int64        `json:"workflow_id,omitempty"`
	JobName          string        `json:"job_name"`
	Name             string        `json:"name"`
	Conclusion       RunConclusion `json:"conclusion"`
	HeadSHA          string        `json:"head_sha"`
	HeadBranch       string        `json:"head_branch"`
	PRNumber         int           `json:"pr_number,omitempty"`
	CompletedAt      Timestamp     `json:"completed_at"`
	HeadSHATimestamp Timestamp     `json:"head_sha_timestamp"`
	FailureCaptures  []string      `json:"failure_captures"`
	FailureLines     []string      `json:"failure_lines"`
	FailureContext   []string      `json:"failure_context,omitempty"`
	RunnerName       string        `json:"runner_name"`
	AuthorEmail      string        `json:"author_email,omitempty"`
	HTMLURL          string        `json:"html_url,omitempty"`
}

func (r JobRecord) IsJob() bool {
	return r.WorkflowID != nil
}

func (r JobRecord) Failed() bool {
	return r.Conclusion == ConclusionFailure
}

// HasFailureLines is false for nil, empty and all-blank line slices alike.
func (r JobRecord) HasFailureLines() bool {
	return strings.Join(r.FailureLines, "") != ""
}

// EventTime is when the record was observed in the corpus: completion when
// known, the head commit time otherwise.
func (r JobRecord) EventTime() Timestamp {
	if r.CompletedAt.Valid {
		return r.CompletedAt
	}
	return r.HeadSHATimestamp
}

func (r JobRecord) ShortSHA() string {
	if len(r.HeadSHA) >= 7 {
		return r.HeadSHA[:7]
	}
	return r.HeadSHA
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Timestamp is an optional point in time. The zero value is absent.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

func TimestampOf(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t.UTC(), Valid: true}
}

// ParseTimestamp normalizes ingested timestamp strings. The empty string and
// the "0" sentinel written by the corpus for unknown values are absent, as is
// anything that does not parse.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return Timestamp{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimestampOf(t)
		}
	}
	return Timestamp{}
}

func (t Timestamp) String() string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(time.RFC3339)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("0")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseTimestamp(s)
	return nil
}
