package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/metricsys/pkg/cli"
	"mercator-hq/metricsys/pkg/snapshot"
)

var snapshotsFlags struct {
	output    string
	since     time.Duration
	limit     int
	olderThan time.Duration
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect and manage stored snapshots",
	Long: `Read snapshots from the configured store.

Examples:
  # Ten most recent snapshots
  metricsys snapshots list --limit 10

  # Snapshots from the last hour, as JSON
  metricsys snapshots list --since 1h --output json

  # One snapshot with all of its observations
  metricsys snapshots show 3f2c1a9e-8d7b-4e6f-a5c4-1b2d3e4f5a6b

  # Record a snapshot now
  metricsys snapshots take

  # Delete snapshots older than a day
  metricsys snapshots prune --older-than 24h`,
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotsList,
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotsShow,
}

var snapshotsTakeCmd = &cobra.Command{
	Use:   "take",
	Short: "Record a snapshot of the current observations",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotsTake,
}

var snapshotsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old snapshots",
	Long: `Delete snapshots older than --older-than. Without the flag the configured
snapshot retention is used.`,
	Args: cobra.NoArgs,
	RunE: runSnapshotsPrune,
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
	snapshotsCmd.AddCommand(snapshotsListCmd, snapshotsShowCmd, snapshotsTakeCmd, snapshotsPruneCmd)

	snapshotsCmd.PersistentFlags().StringVarP(&snapshotsFlags.output, "output", "o", "text", "output format (text, json, csv)")
	snapshotsListCmd.Flags().DurationVar(&snapshotsFlags.since, "since", 0, "only list snapshots taken within this duration")
	snapshotsListCmd.Flags().IntVar(&snapshotsFlags.limit, "limit", 0, "maximum number of snapshots to list (0 for all)")
	snapshotsPruneCmd.Flags().DurationVar(&snapshotsFlags.olderThan, "older-than", 0, "delete snapshots older than this duration")
}

func runSnapshotsList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(snapshotsFlags.output)
	if err != nil {
		return err
	}

	store, err := openStoreFromFlags(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	query := snapshot.Query{Limit: snapshotsFlags.limit}
	if snapshotsFlags.since > 0 {
		query.Since = time.Now().Add(-snapshotsFlags.since)
	}

	summaries, err := store.List(cmd.Context(), query)
	if err != nil {
		return cli.NewCommandError("snapshots list", err)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), cli.SnapshotTable(summaries))
}

func runSnapshotsShow(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(snapshotsFlags.output)
	if err != nil {
		return err
	}

	store, err := openStoreFromFlags(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Get(cmd.Context(), args[0])
	if errors.Is(err, snapshot.ErrNotFound) {
		return fmt.Errorf("no snapshot with ID %s", args[0])
	}
	if err != nil {
		return cli.NewCommandError("snapshots show", err)
	}

	if format == cli.FormatText {
		fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s taken %s (%d observations)\n\n",
			snap.ID, snap.TakenAt.Format(time.RFC3339), len(snap.Observations))
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), cli.SnapshotView{Snapshot: snap})
}

func runSnapshotsTake(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	system, err := newSystem(cfg, logger.Slog())
	if err != nil {
		return cli.NewCommandError("snapshots take", err)
	}
	defer system.Shutdown()

	store, err := openStore(cfg, logger.Slog())
	if err != nil {
		return cli.NewCommandError("snapshots take", err)
	}
	defer store.Close()

	recorder, err := snapshot.NewRecorder(system, store, system, cfg.Metrics.Namespace, logger.Slog())
	if err != nil {
		return cli.NewCommandError("snapshots take", err)
	}

	snap, err := recorder.Take(cmd.Context())
	if err != nil {
		return cli.NewCommandError("snapshots take", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Snapshot %s stored (%d observations)\n", snap.ID, len(snap.Observations))
	return nil
}

func runSnapshotsPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	store, err := openStore(cfg, logger.Slog())
	if err != nil {
		return cli.NewCommandError("snapshots prune", err)
	}
	defer store.Close()

	retention := cfg.Snapshot.Retention
	if snapshotsFlags.olderThan > 0 {
		retention = snapshotsFlags.olderThan
	}

	deleted, err := store.DeleteBefore(cmd.Context(), time.Now().Add(-retention))
	if err != nil {
		return cli.NewCommandError("snapshots prune", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %d snapshots older than %s\n", deleted, retention)
	return nil
}

func openStoreFromFlags(cmd *cobra.Command) (snapshot.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg, logger.Slog())
	if err != nil {
		return nil, cli.NewCommandError(cmd.CommandPath(), err)
	}
	return store, nil
}
