// Package storage provides snapshot.Store backends.
//
// # Backends
//
//   - MemoryStore keeps snapshots in a map. Useful for tests and for
//     short-lived processes that only need the most recent history.
//   - SQLiteStore persists snapshots in a SQLite database through either
//     the pure-Go driver ("sqlite", modernc.org/sqlite) or the cgo driver
//     ("sqlite3", github.com/mattn/go-sqlite3).
//
// New selects a backend from config.StorageConfig.
//
// # Schema
//
// The SQLite schema holds one row per snapshot and one row per observation,
// keyed by snapshot ID and position. The schema version is tracked in the
// schema_version table for future migrations.
package storage
