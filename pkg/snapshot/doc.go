// Package snapshot records the observations of a metrics system at regular
// intervals and keeps them in a Store.
//
// # Overview
//
// A Recorder drains System.StreamAllObservations into a Snapshot and saves
// it. A Scheduler runs the recorder on a cron schedule and prunes snapshots
// older than the configured retention on a second schedule.
//
// # Usage
//
//	store, err := storage.New(cfg.Storage, logger)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	recorder, err := snapshot.NewRecorder(system, store, system, cfg.Metrics.Namespace, logger)
//	if err != nil {
//		return err
//	}
//
//	scheduler := snapshot.NewScheduler(recorder, cfg.Snapshot, logger)
//	if err := scheduler.Start(ctx); err != nil {
//		return err
//	}
//	defer scheduler.Stop()
//
// # Self-Instrumentation
//
// When given a metrics system, the recorder reports in the "snapshot"
// category:
//   - runs_total{outcome}: snapshot attempts by outcome ("success", "error")
//   - duration: histogram of the time taken per snapshot
//   - last_observations: size of the most recent snapshot
//
// These metrics appear in later snapshots like any other.
package snapshot
