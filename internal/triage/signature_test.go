package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/altin/gha-triage/internal/model"
)

func TestNormalizeJobName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pull / linux-jammy / test (default, 1, 3, linux.2xlarge)", "pull / linux-jammy / test (default, linux.2xlarge)"},
		{"pull / linux-jammy / test (default, 2, 3)", "pull / linux-jammy / test (default)"},
		{"pull / linux-jammy / build", "pull / linux-jammy / build"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeJobName(tt.in))
		})
	}
}

func TestCaptureMatcher(t *testing.T) {
	base := model.JobRecord{
		Name:            "pull / linux-jammy / test (default, 1, 3, linux.2xlarge)",
		Conclusion:      model.ConclusionFailure,
		FailureCaptures: []string{"RuntimeError: X", "test_foo.py::test_bar"},
	}
	otherShard := base
	otherShard.Name = "trunk / linux-jammy / test (default, 2, 3, linux.2xlarge)"

	sameShardOtherWorkflow := base
	sameShardOtherWorkflow.Name = "pull / linux-jammy / test (default, 3, 3, linux.2xlarge)"

	differentCaptures := sameShardOtherWorkflow
	differentCaptures.FailureCaptures = []string{"RuntimeError: Y"}

	noCaptures := base
	noCaptures.FailureCaptures = nil

	cancelled := sameShardOtherWorkflow
	cancelled.Conclusion = model.ConclusionCancelled

	m := CaptureMatcher{}
	assert.True(t, m.SameFailure(base, sameShardOtherWorkflow))
	assert.False(t, m.SameFailure(base, otherShard), "different workflow prefix")
	assert.False(t, m.SameFailure(base, differentCaptures))
	assert.False(t, m.SameFailure(noCaptures, noCaptures))
	assert.False(t, m.SameFailure(base, cancelled))
	assert.False(t, m.SameFailure(model.JobRecord{}, base))
}
