package snapshot

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mercator-hq/metricsys/pkg/telemetry/logging"
	"mercator-hq/metricsys/pkg/telemetry/metrics"
)

// CategoryName is the metric category the recorder reports itself under.
const CategoryName = "snapshot"

// Outcomes recorded on the runs_total counter.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// ObservationSource supplies the observations captured by a snapshot.
// *metrics.System implements it.
type ObservationSource interface {
	StreamAllObservations() iter.Seq[metrics.Observation]
}

// Recorder reads every current observation from a source and stores the
// result as a snapshot.
type Recorder struct {
	source ObservationSource
	store  Store
	logger *slog.Logger
	now    func() time.Time

	runs     *metrics.LabelledMetric[metrics.Counter]
	duration metrics.OperationTimer
	last     atomic.Int64
}

// NewRecorder creates a recorder. When system is non-nil the recorder
// registers its own metrics in the "snapshot" category under namespace:
// runs_total{outcome}, duration, and last_observations.
func NewRecorder(source ObservationSource, store Store, system *metrics.System, namespace string, logger *slog.Logger) (*Recorder, error) {
	if source == nil {
		return nil, fmt.Errorf("observation source is required")
	}
	if store == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		source:   source,
		store:    store,
		logger:   logger.With("component", "snapshot.recorder"),
		now:      time.Now,
		duration: metrics.NoopTimer,
	}

	if system == nil {
		return r, nil
	}

	category := metrics.NewCategory(namespace, CategoryName)

	runs, err := system.CreateLabelledCounter(category, "runs_total", "Snapshot runs by outcome", "outcome")
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}
	r.runs = runs

	r.duration, err = system.CreateSimpleTimer(category, "duration", "Time taken to read and store a snapshot")
	if err != nil {
		return nil, fmt.Errorf("failed to create duration timer: %w", err)
	}

	err = system.CreateIntegerGauge(category, "last_observations", "Observations in the most recent snapshot", r.last.Load)
	if err != nil {
		return nil, fmt.Errorf("failed to create last observations gauge: %w", err)
	}

	return r, nil
}

// Take reads the source and stores one snapshot.
//
// Observations are read until the source is exhausted or ctx is cancelled.
// A cancelled read stores nothing.
func (r *Recorder) Take(ctx context.Context) (*Snapshot, error) {
	timing := r.duration.StartTimer()
	defer timing.StopTimer()

	id := uuid.NewString()
	ctx = logging.WithOperation(logging.WithSnapshotID(ctx, id), "take")

	snap := &Snapshot{
		ID:           id,
		TakenAt:      r.now().UTC(),
		Observations: []Record{},
	}
	for o := range r.source.StreamAllObservations() {
		if err := ctx.Err(); err != nil {
			r.count(OutcomeError)
			return nil, fmt.Errorf("snapshot cancelled: %w", err)
		}
		snap.Observations = append(snap.Observations, RecordFrom(o))
	}

	if err := r.store.Save(ctx, snap); err != nil {
		r.count(OutcomeError)
		r.logger.ErrorContext(ctx, "failed to store snapshot", "error", err)
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	r.count(OutcomeSuccess)
	r.last.Store(int64(len(snap.Observations)))

	r.logger.DebugContext(ctx, "snapshot stored", "observations", len(snap.Observations))
	return snap, nil
}

// Prune deletes snapshots older than retention and returns how many were
// removed.
func (r *Recorder) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", retention)
	}

	ctx = logging.WithOperation(ctx, "prune")
	cutoff := r.now().UTC().Add(-retention)

	deleted, err := r.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	r.logger.DebugContext(ctx, "snapshots pruned", "cutoff", cutoff, "deleted_count", deleted)
	return deleted, nil
}

// LastObservations returns the number of observations in the most recent
// successful snapshot.
func (r *Recorder) LastObservations() int64 {
	return r.last.Load()
}

func (r *Recorder) count(outcome string) {
	if r.runs != nil {
		r.runs.WithLabelValues(outcome).Inc()
	}
}
