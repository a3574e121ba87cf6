// Package cli provides the command-line interface for gha-triage.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/altin/gha-triage/internal/config"
)

var (
	// Version is set by main from build info.
	Version = "dev"

	// Global flags
	verbose     bool
	repoFlag    string
	configPath  string
	lookback    time.Duration
	storeDriver string
	storeDSN    string
	logFile     string
	logLevel    string

	// Global config and logger
	cfg      config.Config
	logger   = slog.Default()
	closeLog = func() error { return nil }
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gha-triage",
	Short: "Decide whether failed GitHub Actions jobs are flaky or new",
	Long: `gha-triage correlates failed CI jobs against a corpus of historical job
failures. A failure is flaky when the same failure signature already occurred
on an unrelated commit, branch and author within the lookback window.

The corpus is read from a SQL store (sqlite or postgres) or a JSON file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := applyFlags(cmd, &cfg); err != nil {
			return err
		}

		level := cfg.Level()
		if verbose {
			level = slog.LevelDebug
		}
		if cmd.Name() == "tui" {
			logger, closeLog = config.SetupFileLogger(cfg.LogFile, level)
		} else {
			logger, closeLog = config.SetupLogger(cfg.LogFile, level)
		}
		slog.SetDefault(logger)

		// labels is a local table lookup and needs no repository.
		if cmd.Name() == "labels" {
			return nil
		}
		return cfg.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	},
}

// applyFlags layers explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("repo") {
		if err := c.SetRepo(repoFlag); err != nil {
			return err
		}
	}
	if flags.Changed("lookback") {
		c.Lookback = lookback
	}
	if flags.Changed("store-driver") {
		c.Store.Driver = storeDriver
	}
	if flags.Changed("store-dsn") {
		c.Store.DSN = storeDSN
	}
	if flags.Changed("log-file") {
		c.LogFile = logFile
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel the command's context.
func Execute() error {
	rootCmd.Version = Version
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVarP(&repoFlag, "repo", "R", "", "repository in owner/repo format")
	pf.StringVar(&configPath, "config", "", "path to a YAML config file")
	pf.DurationVar(&lookback, "lookback", 0, "how far before the base commit to search (default 24h)")
	pf.StringVar(&storeDriver, "store-driver", "", "failure store driver: sqlite or postgres")
	pf.StringVar(&storeDSN, "store-dsn", "", "failure store data source name")
	pf.StringVar(&logFile, "log-file", "", "JSON log file")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "gha-triage", Version)
	},
}
