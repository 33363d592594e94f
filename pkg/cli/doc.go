/*
Package cli provides command-line interface utilities for metricsys.

The cli package includes output formatters, table views of observations and
snapshots, and signal handling used by the metricsys command.

Output Formatting:

Commands render results as text tables, JSON or CSV:

	format, err := cli.ParseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	formatter := cli.NewFormatter(format)
	if err := formatter.FormatTo(os.Stdout, cli.ObservationTable(records)); err != nil {
		return err
	}

Non-finite metric values are written as "NaN", "+Inf" and "-Inf" in every
format, including JSON.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
