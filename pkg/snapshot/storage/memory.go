package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"mercator-hq/metricsys/pkg/snapshot"
)

// MemoryStore implements snapshot.Store using an in-memory map.
// Snapshots are lost when the process exits.
type MemoryStore struct {
	snaps map[string]*snapshot.Snapshot
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snaps: make(map[string]*snapshot.Snapshot),
	}
}

// Save stores a copy of snap.
func (s *MemoryStore) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snaps == nil {
		return snapshot.NewStorageError(DriverMemory, "save", errClosed)
	}
	if _, exists := s.snaps[snap.ID]; exists {
		return snapshot.NewStorageError(DriverMemory, "save", fmt.Errorf("snapshot %s already exists", snap.ID))
	}

	s.snaps[snap.ID] = cloneSnapshot(snap)
	return nil
}

// Get returns a copy of the snapshot with the given ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snaps[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", snapshot.ErrNotFound, id)
	}
	return cloneSnapshot(snap), nil
}

// List returns summaries of the snapshots matching query, newest first.
func (s *MemoryStore) List(ctx context.Context, query snapshot.Query) ([]snapshot.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []snapshot.Summary{}
	for _, snap := range s.snaps {
		if query.Matches(snap.TakenAt) {
			results = append(results, snapshot.Summary{
				ID:               snap.ID,
				TakenAt:          snap.TakenAt,
				ObservationCount: len(snap.Observations),
			})
		}
	}

	slices.SortFunc(results, func(a, b snapshot.Summary) int {
		if c := b.TakenAt.Compare(a.TakenAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results, nil
}

// DeleteBefore removes snapshots taken before cutoff.
func (s *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, snap := range s.snaps {
		if snap.TakenAt.Before(cutoff) {
			delete(s.snaps, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close releases the stored snapshots. Later saves fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snaps = nil
	return nil
}

func cloneSnapshot(snap *snapshot.Snapshot) *snapshot.Snapshot {
	c := *snap
	c.Observations = make([]snapshot.Record, len(snap.Observations))
	for i, r := range snap.Observations {
		r.Labels = slices.Clone(r.Labels)
		c.Observations[i] = r
	}
	return &c
}
