package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mercator-hq/metricsys/pkg/cli"
	"mercator-hq/metricsys/pkg/config"
	"mercator-hq/metricsys/pkg/snapshot"
	"mercator-hq/metricsys/pkg/snapshot/storage"
	"mercator-hq/metricsys/pkg/telemetry/logging"
	"mercator-hq/metricsys/pkg/telemetry/metrics"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "metricsys",
	Short: "metricsys - metric observation and snapshot recorder",
	Long: `metricsys maintains a registry of metric collectors grouped into categories
and reads their current values back as observations.

It can:
  - Print the current observations of the process and Go runtime
  - Record snapshots of all observations on a cron schedule
  - Keep snapshots in SQLite and prune them after a retention period`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configuration file. A missing file is only an error
// when --config was given explicitly; otherwise the defaults are used.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if _, err := os.Stat(cfgFile); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.NewDefaultConfig(), nil
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return cfg, nil
}

// configFileExists reports whether the configuration file is on disk and
// can therefore be watched.
func configFileExists() bool {
	_, err := os.Stat(cfgFile)
	return err == nil
}

func newLogger(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	lc := logging.ConfigFrom(cfg.Logging)
	lc.Writer = w
	if verbose {
		lc.Level = "debug"
	}

	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return logger, nil
}

// newSystem creates and initializes the metrics system.
func newSystem(cfg *config.Config, logger *slog.Logger) (*metrics.System, error) {
	system := metrics.NewSystem(&cfg.Metrics, logger)
	if err := system.Init(); err != nil {
		system.Shutdown()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return system, nil
}

// openStore opens the configured snapshot store, creating the database
// directory if needed.
func openStore(cfg *config.Config, logger *slog.Logger) (snapshot.Store, error) {
	if cfg.Storage.Driver != storage.DriverMemory && cfg.Storage.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return store, nil
}

// resolveCategory maps a category name to the category used when it was
// registered.
func resolveCategory(cfg *config.Config, name string) metrics.Category {
	switch name {
	case metrics.CategoryProcess.Name:
		return metrics.CategoryProcess
	case metrics.CategoryRuntime.Name:
		return metrics.CategoryRuntime
	default:
		return metrics.NewCategory(cfg.Metrics.Namespace, name)
	}
}
