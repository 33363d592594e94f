package main

import (
	"iter"

	"github.com/spf13/cobra"

	"mercator-hq/metricsys/pkg/cli"
	"mercator-hq/metricsys/pkg/snapshot"
	"mercator-hq/metricsys/pkg/telemetry/metrics"
)

var observeFlags struct {
	category string
	output   string
}

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Print current observations",
	Long: `Initialize the metrics system from the configuration and print the
current value of every metric once.

Examples:
  # All enabled categories as a table
  metricsys observe

  # Only Go runtime metrics, as JSON
  metricsys observe --category go --output json`,
	Args: cobra.NoArgs,
	RunE: runObserve,
}

func init() {
	rootCmd.AddCommand(observeCmd)

	observeCmd.Flags().StringVar(&observeFlags.category, "category", "", "only print this category")
	observeCmd.Flags().StringVarP(&observeFlags.output, "output", "o", "text", "output format (text, json, csv)")
}

func runObserve(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(observeFlags.output)
	if err != nil {
		return err
	}

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
		return cli.NewCommandError("observe", err)
	}
	defer system.Shutdown()

	var seq iter.Seq[metrics.Observation]
	if observeFlags.category != "" {
		seq = system.StreamObservations(resolveCategory(cfg, observeFlags.category))
	} else {
		seq = system.StreamAllObservations()
	}

	records := []snapshot.Record{}
	for o := range seq {
		records = append(records, snapshot.RecordFrom(o))
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), cli.ObservationTable(records))
}
