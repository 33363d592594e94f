package main

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/metricsys/pkg/cli"
	"mercator-hq/metricsys/pkg/config"
	"mercator-hq/metricsys/pkg/snapshot"
	"mercator-hq/metricsys/pkg/telemetry/logging"
)

var runFlags struct {
	logLevel string
	noWatch  bool
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Record snapshots until interrupted",
	Long: `Initialize the metrics system, open the snapshot store, and record
snapshots on the configured schedule until SIGINT or SIGTERM.

The configuration file is watched; changes to the log level and the snapshot
schedules take effect without a restart.

Examples:
  # Start with default config
  metricsys run

  # Start with custom config
  metricsys run --config /etc/metricsys/config.yaml

  # Validate config without starting
  metricsys run --dry-run`,
	Args: cobra.NoArgs,
	RunE: runRecorder,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.noWatch, "no-watch", false, "do not reload the config file on change")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runRecorder(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger.Slog())

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	system, err := newSystem(cfg, logger.Slog())
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer system.Shutdown()
	fmt.Fprintf(out, "✓ Metrics initialized (categories: %s)\n", strings.Join(system.EnabledCategories(), ", "))

	store, err := openStore(cfg, logger.Slog())
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer store.Close()
	fmt.Fprintf(out, "✓ Snapshot store opened (driver: %s)\n", cfg.Storage.Driver)

	recorder, err := snapshot.NewRecorder(system, store, system, cfg.Metrics.Namespace, logger.Slog())
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	scheduler := snapshot.NewScheduler(recorder, cfg.Snapshot, logger.Slog())
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer scheduler.Stop()

	if next := scheduler.NextRun(); next != nil {
		slog.Debug("snapshot scheduler started", "next_run", next)
	}

	if !runFlags.noWatch && configFileExists() {
		watcher, err := config.NewWatcher(cfgFile, 0, logger.Slog())
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer watcher.Stop()

		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) {
				applyReload(logger, scheduler, cfg, next)
			})
			if err != nil {
				slog.Error("config watcher failed", "error", err)
			}
		}()
	}

	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Fprintln(out, "\nShutting down...")
	return nil
}

// applyReload applies the parts of a reloaded configuration that can change
// at runtime. Metrics and storage settings stay as they were at startup.
func applyReload(logger *logging.Logger, scheduler *snapshot.Scheduler, startup, next *config.Config) {
	level := next.Logging.Level
	switch {
	case verbose:
		level = "debug"
	case runFlags.logLevel != "":
		level = runFlags.logLevel
	}
	if err := logger.SetLevel(level); err != nil {
		slog.Warn("ignoring reloaded log level", "error", err)
	}

	if err := scheduler.Reschedule(next.Snapshot); err != nil {
		slog.Warn("ignoring reloaded snapshot schedule", "error", err)
	}

	if !metricsEqual(startup.Metrics, next.Metrics) {
		slog.Warn("metrics configuration changed; restart to apply")
	}
	if startup.Storage != next.Storage {
		slog.Warn("storage configuration changed; restart to apply")
	}
}

func metricsEqual(a, b config.MetricsConfig) bool {
	return a.Enabled == b.Enabled &&
		a.Namespace == b.Namespace &&
		a.TimersEnabled == b.TimersEnabled &&
		slices.Equal(a.Categories, b.Categories)
}
