package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/altin/gha-triage/internal/model"
)

func TestSelectWindow(t *testing.T) {
	head := model.ParseTimestamp("2024-01-10T00:00:00Z")

	tests := []struct {
		name      string
		head      model.Timestamp
		base      model.Timestamp
		lookback  time.Duration
		want      WindowRejection
		wantStart string
	}{
		{"no head", model.Timestamp{}, model.Timestamp{}, 24 * time.Hour, WindowNoAnchor, ""},
		{"zero sentinel head", model.ParseTimestamp("0"), model.Timestamp{}, 24 * time.Hour, WindowNoAnchor, ""},
		{"no base", head, model.ParseTimestamp("0"), 24 * time.Hour, WindowOK, "2024-01-09T00:00:00Z"},
		{"base equals head", head, head, 24 * time.Hour, WindowOK, "2024-01-09T00:00:00Z"},
		{"older base", head, model.ParseTimestamp("2024-01-05T00:00:00Z"), 24 * time.Hour, WindowOK, "2024-01-04T00:00:00Z"},
		{"exactly at ceiling", head, model.ParseTimestamp("2024-01-04T00:00:00Z"), 24 * time.Hour, WindowOK, "2024-01-03T00:00:00Z"},
		{"partial hour over ceiling", head, model.ParseTimestamp("2024-01-03T23:30:00Z"), 24 * time.Hour, WindowTooWide, "2024-01-02T23:30:00Z"},
		{"one second over ceiling", head, model.ParseTimestamp("2024-01-03T23:59:59Z"), 24 * time.Hour, WindowTooWide, "2024-01-02T23:59:59Z"},
		{"over ceiling", head, model.ParseTimestamp("2024-01-03T22:59:00Z"), 24 * time.Hour, WindowTooWide, "2024-01-02T22:59:00Z"},
		{"lookback alone too wide", head, model.Timestamp{}, 200 * time.Hour, WindowTooWide, "2024-01-01T16:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, got := SelectWindow(tt.head, tt.base, tt.lookback, DefaultMaxWindow)
			assert.Equal(t, tt.want, got, got.String())
			if tt.wantStart != "" {
				assert.Equal(t, tt.wantStart, w.Start.Format(time.RFC3339))
				assert.True(t, w.End.Equal(head.Time))
			}
		})
	}
}
