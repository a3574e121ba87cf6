package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/altin/gha-triage/internal/store"
	"github.com/altin/gha-triage/internal/triage"
)

var ErrInvalid = errors.New("invalid config")

type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type CacheConfig struct {
	Dir    string        `yaml:"dir"`
	SizeMB int           `yaml:"size_mb"`
	TTL    time.Duration `yaml:"ttl"`
}

type Config struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`

	Lookback         time.Duration       `yaml:"lookback"`
	MaxWindow        time.Duration       `yaml:"max_window"`
	MaxResults       int                 `yaml:"max_results"`
	Exclusions       []string            `yaml:"exclusions"`
	SuppressedLabels map[string][]string `yaml:"suppressed_labels"`

	Store StoreConfig `yaml:"store"`
	Cache CacheConfig `yaml:"cache"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Lookback:         triage.DefaultLookback,
		MaxWindow:        triage.DefaultMaxWindow,
		MaxResults:       triage.DefaultMaxResults,
		Exclusions:       append([]string(nil), triage.DefaultExclusions...),
		SuppressedLabels: triage.DefaultSuppressionTable(),
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(os.TempDir(), "gha-triage", "failures.db"),
		},
		Cache: CacheConfig{
			Dir:    filepath.Join(os.TempDir(), "gha-triage", "logs"),
			SizeMB: 500,
			TTL:    24 * time.Hour,
		},
		LogFile:  filepath.Join(os.TempDir(), "gha-triage.log"),
		LogLevel: "INFO",
	}
}

// Load layers defaults, the YAML file at path (when path is non-empty) and
// GHA_TRIAGE_* environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GHA_TRIAGE_REPO"); v != "" {
		if err := c.SetRepo(v); err != nil {
			return err
		}
	}
	if v := os.Getenv("GHA_TRIAGE_LOOKBACK"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: GHA_TRIAGE_LOOKBACK: %v", ErrInvalid, err)
		}
		c.Lookback = d
	}
	setString(&c.Store.Driver, "GHA_TRIAGE_STORE_DRIVER")
	setString(&c.Store.DSN, "GHA_TRIAGE_STORE_DSN")
	setString(&c.Cache.Dir, "GHA_TRIAGE_CACHE_DIR")
	setString(&c.LogFile, "GHA_TRIAGE_LOG_FILE")
	setString(&c.LogLevel, "GHA_TRIAGE_LOG_LEVEL")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// SetRepo parses an owner/repo pair.
func (c *Config) SetRepo(nwo string) error {
	parts := strings.SplitN(nwo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("%w: repo must be in owner/repo format, got %q", ErrInvalid, nwo)
	}
	c.Owner, c.Repo = parts[0], parts[1]
	return nil
}

func (c Config) RepoNWO() string {
	return fmt.Sprintf("%s/%s", c.Owner, c.Repo)
}

func (c Config) Validate() error {
	if c.Owner == "" || c.Repo == "" {
		return fmt.Errorf("%w: owner and repo are required (use -R owner/repo)", ErrInvalid)
	}
	if c.Lookback <= 0 {
		return fmt.Errorf("%w: lookback must be positive", ErrInvalid)
	}
	if c.MaxWindow <= 0 {
		return fmt.Errorf("%w: max_window must be positive", ErrInvalid)
	}
	if c.Lookback > c.MaxWindow {
		return fmt.Errorf("%w: lookback %s exceeds max_window %s", ErrInvalid, c.Lookback, c.MaxWindow)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("%w: max_results must be positive", ErrInvalid)
	}
	if !slices.Contains(store.Drivers(), c.Store.Driver) {
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalid, c.Store.Driver)
	}
	return nil
}

// Policy is the engine's view of the configuration.
func (c Config) Policy() triage.Policy {
	return triage.Policy{
		Exclusions: append([]string{}, c.Exclusions...),
		Lookback:   c.Lookback,
		MaxWindow:  c.MaxWindow,
		MaxResults: c.MaxResults,
	}
}

func (c Config) Suppressions() triage.SuppressionTable {
	return triage.SuppressionTable(c.SuppressedLabels)
}

func (c Config) Level() slog.Level {
	return ParseLogLevel(c.LogLevel)
}

func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
