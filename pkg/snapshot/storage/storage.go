package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"mercator-hq/metricsys/pkg/config"
	"mercator-hq/metricsys/pkg/snapshot"
)

// Store drivers accepted by New.
const (
	// DriverSQLite is the pure-Go SQLite driver (modernc.org/sqlite).
	DriverSQLite = "sqlite"

	// DriverSQLite3 is the cgo SQLite driver (github.com/mattn/go-sqlite3).
	DriverSQLite3 = "sqlite3"

	// DriverMemory keeps snapshots in process memory.
	DriverMemory = "memory"
)

var errClosed = errors.New("store is closed")

// New opens the store selected by cfg.Driver.
func New(cfg config.StorageConfig, logger *slog.Logger) (snapshot.Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, DriverSQLite3:
		return NewSQLiteStore(SQLiteConfig{
			Driver:       cfg.Driver,
			Path:         cfg.Path,
			BusyTimeout:  cfg.BusyTimeout,
			WALMode:      cfg.WALMode,
			MaxOpenConns: cfg.MaxOpenConns,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
