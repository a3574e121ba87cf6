package triage

import (
	"regexp"
	"slices"
	"strings"

	"github.com/altin/gha-triage/internal/model"
)

// SignatureMatcher decides whether two records are the same failure.
type SignatureMatcher interface {
	SameFailure(a, b model.JobRecord) bool
}

// SignatureMatcherFunc adapts a function to SignatureMatcher.
type SignatureMatcherFunc func(a, b model.JobRecord) bool

func (f SignatureMatcherFunc) SameFailure(a, b model.JobRecord) bool { return f(a, b) }

// shardPattern matches the shard coordinates in names such as
// "test (default, 1, 3, linux.2xlarge)".
var shardPattern = regexp.MustCompile(`\(([^,()]+), \d+, \d+(, ([^()]+))?\)`)

// NormalizeJobName drops shard coordinates so that shards of one test job
// compare equal.
func NormalizeJobName(name string) string {
	name = shardPattern.ReplaceAllStringFunc(name, func(m string) string {
		sub := shardPattern.FindStringSubmatch(m)
		if sub[3] == "" {
			return "(" + sub[1] + ")"
		}
		return "(" + sub[1] + ", " + sub[3] + ")"
	})
	return strings.TrimSpace(name)
}

// CaptureMatcher is the default SignatureMatcher: same job modulo sharding,
// same conclusion, and identical failure captures. Records without captures
// carry no signature and never match.
type CaptureMatcher struct{}

func (CaptureMatcher) SameFailure(a, b model.JobRecord) bool {
	if a.Name == "" || b.Name == "" {
		return false
	}
	if NormalizeJobName(a.Name) != NormalizeJobName(b.Name) {
		return false
	}
	if a.Conclusion != b.Conclusion {
		return false
	}
	if len(a.FailureCaptures) == 0 {
		return false
	}
	return slices.Equal(a.FailureCaptures, b.FailureCaptures)
}
