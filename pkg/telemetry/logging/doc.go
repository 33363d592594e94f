// Package logging builds the structured loggers used across metricsys.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON, text, and console output formats
//   - A level that can be changed at runtime, for configuration reload
//   - Context fields (snapshot ID, metric category) attached to log entries
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger.Slog())
//
//	// Later, on configuration reload
//	if err := logger.SetLevel("debug"); err != nil {
//	    return err
//	}
//
// Components take a *slog.Logger and tag their entries with a component
// attribute:
//
//	log := logger.Slog().With("component", "snapshot_recorder")
package logging
