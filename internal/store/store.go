// Package store reads the historical job failure corpus from a SQL database.
// The corpus is written by the log classifier; this package never writes.
//
// Supported drivers:
//
//	sqlite    modernc.org/sqlite, DSN is a file path
//	postgres  github.com/lib/pq, DSN is a connection URL
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("job record not found")

// Schema is the corpus table as the classifier writes it. Timestamps are
// ISO-8601 UTC text so that range comparisons work on both drivers; unknown
// timestamps are written as "0". List columns hold JSON arrays.
const Schema = `
CREATE TABLE IF NOT EXISTS job_failures (
	id                 BIGINT PRIMARY KEY,
	workflow_id        BIGINT,
	job_name           TEXT NOT NULL DEFAULT '',
	name               TEXT NOT NULL DEFAULT '',
	conclusion         TEXT NOT NULL DEFAULT '',
	head_sha           TEXT NOT NULL DEFAULT '',
	head_branch        TEXT NOT NULL DEFAULT '',
	pr_number          INTEGER NOT NULL DEFAULT 0,
	completed_at       TEXT NOT NULL DEFAULT '0',
	head_sha_timestamp TEXT NOT NULL DEFAULT '0',
	failure_captures   TEXT NOT NULL DEFAULT '[]',
	failure_lines      TEXT NOT NULL DEFAULT '[]',
	failure_context    TEXT NOT NULL DEFAULT '[]',
	runner_name        TEXT NOT NULL DEFAULT '',
	author_email       TEXT NOT NULL DEFAULT '',
	html_url           TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_job_failures_completed ON job_failures(completed_at);
`

type dialect struct {
	like        string
	placeholder func(n int) string
}

var dialects = map[string]dialect{
	"sqlite": {
		like:        "LIKE",
		placeholder: func(int) string { return "?" },
	},
	"postgres": {
		like:        "ILIKE",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	},
}

// Drivers lists the supported driver names.
func Drivers() []string {
	return []string{"sqlite", "postgres"}
}

type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to the corpus. SQLite connections are opened query-only.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("unsupported store driver %q (want one of %s)", driver, strings.Join(Drivers(), ", "))
	}
	if driver == "sqlite" {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s store: %w", driver, err)
	}
	return &Store{db: db, dialect: dialects[driver]}, nil
}

// sqliteDSN applies the pragmas on every pooled connection.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(10000)&_pragma=query_only(1)"
}

// New wraps an existing handle.
func New(db *sql.DB, driver string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	return &Store{db: db, dialect: d}, nil
}

func (s *Store) Close() error { return s.db.Close() }
