package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altin/gha-triage/internal/model"
)

func TestLoadLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
owner: pytorch
repo: pytorch
lookback: 48h
max_results: 5
exclusions: [lint, docs]
store:
  driver: postgres
  dsn: postgres://localhost/hud
`), 0o644))
	t.Setenv("GHA_TRIAGE_LOOKBACK", "12h")
	t.Setenv("GHA_TRIAGE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pytorch/pytorch", cfg.RepoNWO())
	assert.Equal(t, 12*time.Hour, cfg.Lookback, "env overrides file")
	assert.Equal(t, 7*24*time.Hour, cfg.MaxWindow, "default kept")
	assert.Equal(t, 5, cfg.MaxResults)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	require.NoError(t, cfg.Validate())

	p := cfg.Policy()
	assert.True(t, p.Excluded(model.JobRecord{Name: "pull / build-docs"}))
	assert.False(t, p.Excluded(model.JobRecord{Name: "backwards_compat"}))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("GHA_TRIAGE_REPO", "no-slash")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	valid := Default()
	require.NoError(t, valid.SetRepo("pytorch/pytorch"))
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing repo", func(c *Config) { c.Owner = "" }},
		{"zero lookback", func(c *Config) { c.Lookback = 0 }},
		{"lookback above ceiling", func(c *Config) { c.Lookback = 200 * time.Hour }},
		{"zero max results", func(c *Config) { c.MaxResults = 0 }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestSuppressionsDefault(t *testing.T) {
	got := Default().Suppressions().SuppressedLabels(model.JobRecord{JobName: "bc_linter"}, []string{"suppress-bc-linter"})
	assert.Equal(t, []string{"suppress-bc-linter"}, got)
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("window too wide", "job_id", 7)

	assert.Contains(t, stderr.String(), "window too wide")
	assert.Contains(t, file.String(), `"job_id":7`)
	assert.NotContains(t, file.String(), "hidden")
}
