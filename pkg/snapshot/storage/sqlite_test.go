package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"mercator-hq/metricsys/pkg/snapshot"
)

func newTestSQLiteStore(t *testing.T, cfg SQLiteConfig) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	return store
}

func TestSQLiteStore_SchemaVersion(t *testing.T) {
	store := newTestSQLiteStore(t, SQLiteConfig{Path: filepath.Join(t.TempDir(), "v.db")})
	defer store.Close()

	var version int
	if err := store.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, want %d", version, SchemaVersion)
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	first := newTestSQLiteStore(t, SQLiteConfig{Path: path, WALMode: true})

	snap := newSnapshot(baseTime, snapshot.Record{Category: "app", Name: "x", Value: 7})
	mustSave(t, first, snap)
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Errorf("second Close() error = %v, want a no-op", err)
	}

	second := newTestSQLiteStore(t, SQLiteConfig{Path: path, WALMode: true})
	defer second.Close()

	got, err := second.Get(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got.Observations, snap.Observations) {
		t.Errorf("Observations = %+v, want %+v", got.Observations, snap.Observations)
	}
}

func TestSQLiteStore_DeleteRemovesObservations(t *testing.T) {
	store := newTestSQLiteStore(t, SQLiteConfig{Path: filepath.Join(t.TempDir(), "d.db")})
	defer store.Close()

	ctx := context.Background()
	snap := newSnapshot(baseTime,
		snapshot.Record{Category: "app", Name: "x", Value: 1},
		snapshot.Record{Category: "app", Name: "y", Value: 2},
	)
	mustSave(t, store, snap)

	deleted, err := store.DeleteBefore(ctx, baseTime.Add(1))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteBefore() deleted %d, want 1", deleted)
	}

	var remaining int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM observations`).Scan(&remaining); err != nil {
		t.Fatalf("failed to count observations: %v", err)
	}
	if remaining != 0 {
		t.Errorf("%d observations left, want 0", remaining)
	}
}

func TestNewSQLiteStore_Validation(t *testing.T) {
	if _, err := NewSQLiteStore(SQLiteConfig{Path: ""}, discardLogger()); err == nil {
		t.Error("expected an error for an empty path")
	}
	if _, err := NewSQLiteStore(SQLiteConfig{Driver: "postgres", Path: "x.db"}, discardLogger()); err == nil {
		t.Error("expected an error for an unknown driver")
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		cfg  SQLiteConfig
		want string
	}{
		{SQLiteConfig{Driver: DriverSQLite, Path: "a.db", BusyTimeout: 5000000000, WALMode: true},
			"a.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
		{SQLiteConfig{Driver: DriverSQLite, Path: "a.db", BusyTimeout: 1000000000},
			"a.db?_pragma=busy_timeout(1000)"},
		{SQLiteConfig{Driver: DriverSQLite3, Path: "b.db", BusyTimeout: 2000000000, WALMode: true},
			"b.db?_busy_timeout=2000&_journal_mode=WAL"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := dsn(tt.cfg); got != tt.want {
				t.Errorf("dsn() = %q, want %q", got, tt.want)
			}
		})
	}
}
