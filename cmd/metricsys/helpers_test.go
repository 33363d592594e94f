package main

import (
	"context"
	"iter"
	"time"

	"mercator-hq/metricsys/pkg/snapshot"
	"mercator-hq/metricsys/pkg/telemetry/metrics"
)

type staticSource []metrics.Observation

func (s staticSource) StreamAllObservations() iter.Seq[metrics.Observation] {
	return func(yield func(metrics.Observation) bool) {
		for _, o := range s {
			if !yield(o) {
				return
			}
		}
	}
}

// nopStore accepts and discards snapshots.
type nopStore struct{}

func newNopStore() snapshot.Store { return nopStore{} }

func (nopStore) Save(context.Context, *snapshot.Snapshot) error { return nil }
func (nopStore) Get(_ context.Context, id string) (*snapshot.Snapshot, error) {
	return nil, snapshot.ErrNotFound
}
func (nopStore) List(context.Context, snapshot.Query) ([]snapshot.Summary, error) { return nil, nil }
func (nopStore) DeleteBefore(context.Context, time.Time) (int64, error)           { return 0, nil }
func (nopStore) Close() error                                                     { return nil }
