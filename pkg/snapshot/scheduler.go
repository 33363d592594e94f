package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/metricsys/pkg/config"
)

// Scheduler runs a recorder on cron schedules: Take on cfg.Schedule and
// Prune on cfg.PruneSchedule.
//
// Schedules use the standard five-field cron syntax or descriptors:
//   - "@every 1m"    - Every minute
//   - "0 * * * *"    - Hourly
//   - "0 3 * * *"    - Daily at 3 AM
type Scheduler struct {
	recorder *Recorder
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	cfg     config.SnapshotConfig
	ctx     context.Context
	running bool
	takeID  cron.EntryID
	pruneID cron.EntryID
}

// NewScheduler creates a new snapshot scheduler.
func NewScheduler(recorder *Recorder, cfg config.SnapshotConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		recorder: recorder,
		cron:     cron.New(),
		logger:   logger.With("component", "snapshot.scheduler"),
		cfg:      cfg,
	}
}

// Start schedules the jobs and starts the cron runner. Jobs run with ctx;
// the scheduler stops when ctx is cancelled.
//
// If snapshots are disabled in the configuration, Start does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("snapshot scheduler already running")
	}
	if !s.cfg.Enabled {
		s.logger.Info("snapshots disabled, skipping scheduler")
		return nil
	}

	if err := validateSchedules(s.cfg); err != nil {
		return err
	}

	s.ctx = ctx
	if err := s.addJobs(s.cfg); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("snapshot scheduler started",
		"schedule", s.cfg.Schedule,
		"prune_schedule", s.cfg.PruneSchedule,
		"retention", s.cfg.Retention,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Reschedule replaces the scheduled jobs with those of cfg. A running
// scheduler picks up the new schedules immediately; a stopped one uses
// them on the next Start. Disabling snapshots removes the jobs.
func (s *Scheduler) Reschedule(cfg config.SnapshotConfig) error {
	if cfg.Enabled {
		if err := validateSchedules(cfg); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg == cfg {
		return nil
	}

	if s.running {
		s.removeJobs()
		if cfg.Enabled {
			if err := s.addJobs(cfg); err != nil {
				return err
			}
		}
	}
	s.cfg = cfg

	s.logger.Info("snapshot scheduler rescheduled",
		"enabled", cfg.Enabled,
		"schedule", cfg.Schedule,
		"prune_schedule", cfg.PruneSchedule,
		"retention", cfg.Retention,
	)
	return nil
}

// Stop stops the scheduler and waits for any running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.removeJobs()
	s.running = false
	s.logger.Info("snapshot scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled snapshot time, or nil when no
// snapshot job is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.takeID == 0 {
		return nil
	}
	entry := s.cron.Entry(s.takeID)
	if !entry.Valid() {
		return nil
	}
	next := entry.Next
	return &next
}

// addJobs must be called with s.mu held.
func (s *Scheduler) addJobs(cfg config.SnapshotConfig) error {
	ctx := s.ctx
	retention := cfg.Retention

	takeID, err := s.cron.AddFunc(cfg.Schedule, func() { s.runTake(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule snapshots: %w", err)
	}

	pruneID, err := s.cron.AddFunc(cfg.PruneSchedule, func() { s.runPrune(ctx, retention) })
	if err != nil {
		s.cron.Remove(takeID)
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.takeID, s.pruneID = takeID, pruneID
	return nil
}

// removeJobs must be called with s.mu held.
func (s *Scheduler) removeJobs() {
	if s.takeID != 0 {
		s.cron.Remove(s.takeID)
		s.takeID = 0
	}
	if s.pruneID != 0 {
		s.cron.Remove(s.pruneID)
		s.pruneID = 0
	}
}

func (s *Scheduler) runTake(ctx context.Context) {
	if _, err := s.recorder.Take(ctx); err != nil {
		s.logger.Error("scheduled snapshot failed", "error", err)
	}
}

func (s *Scheduler) runPrune(ctx context.Context, retention time.Duration) {
	deleted, err := s.recorder.Prune(ctx, retention)
	if err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("scheduled pruning completed", "deleted_count", deleted)
	} else {
		s.logger.Debug("scheduled pruning completed, no snapshots deleted")
	}
}

func validateSchedules(cfg config.SnapshotConfig) error {
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", cfg.Schedule, err)
	}
	if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", cfg.PruneSchedule, err)
	}
	if cfg.Retention <= 0 {
		return fmt.Errorf("retention must be positive, got %s", cfg.Retention)
	}
	return nil
}
