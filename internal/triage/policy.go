// Package triage decides whether a failed CI job is a known or flaky failure
// by correlating it against a historical corpus of failure records.
package triage

import (
	"strings"
	"time"
)

const (
	DefaultLookback   = 24 * time.Hour
	DefaultMaxWindow  = 7 * 24 * time.Hour
	DefaultMaxResults = 20
)

// DefaultExclusions lists job name fragments whose failures are deterministic
// enough that flakiness analysis produces more noise than signal.
var DefaultExclusions = []string{
	"lint",
	"linux-docs",
	"ghstack-mergeability-check",
	"backwards_compat",
}

// Policy holds the tunables of the correlation engine. The window ceiling and
// lookback are empirical policy values, not derived from one another.
type Policy struct {
	Exclusions []string
	Lookback   time.Duration
	MaxWindow  time.Duration
	MaxResults int
}

func DefaultPolicy() Policy {
	return Policy{
		Exclusions: append([]string(nil), DefaultExclusions...),
		Lookback:   DefaultLookback,
		MaxWindow:  DefaultMaxWindow,
		MaxResults: DefaultMaxResults,
	}
}

// normalized fills zero fields with defaults and returns a private copy.
func (p Policy) normalized() Policy {
	out := Policy{
		Lookback:   p.Lookback,
		MaxWindow:  p.MaxWindow,
		MaxResults: p.MaxResults,
	}
	if p.Exclusions == nil {
		p.Exclusions = DefaultExclusions
	}
	out.Exclusions = make([]string, 0, len(p.Exclusions))
	for _, e := range p.Exclusions {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			out.Exclusions = append(out.Exclusions, e)
		}
	}
	if out.Lookback <= 0 {
		out.Lookback = DefaultLookback
	}
	if out.MaxWindow <= 0 {
		out.MaxWindow = DefaultMaxWindow
	}
	if out.MaxResults <= 0 {
		out.MaxResults = DefaultMaxResults
	}
	return out
}
