package config

import "time"

// Config is the root configuration structure for metricsys.
// It contains the metrics system, logging, snapshot recorder and snapshot
// storage sections.
type Config struct {
	// Metrics controls which metric categories are recorded and how exposed
	// names are prefixed.
	Metrics MetricsConfig `yaml:"metrics"`

	// Logging controls log level and output format.
	Logging LoggingConfig `yaml:"logging"`

	// Snapshot controls the periodic recording of observations and the
	// pruning of old snapshots.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Storage selects and tunes the snapshot store.
	Storage StorageConfig `yaml:"storage"`
}

// MetricsConfig contains metrics system configuration.
type MetricsConfig struct {
	// Enabled controls whether any metrics are recorded. When false every
	// category is treated as disabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the application prefix of application-defined
	// categories. Standard categories (process, go) are never prefixed.
	// Default: "metricsys_"
	Namespace string `yaml:"namespace"`

	// Categories lists the enabled metric categories by name.
	// Default: ["process", "go", "snapshot"]
	Categories []string `yaml:"categories"`

	// TimersEnabled controls whether timers are recorded. Disabled timers
	// are inert even in enabled categories.
	// Default: true
	TimersEnabled bool `yaml:"timers_enabled"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// SnapshotConfig contains snapshot recorder configuration.
type SnapshotConfig struct {
	// Enabled controls whether snapshots are taken on a schedule.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Schedule is the cron expression for taking snapshots. Descriptors
	// such as "@every 1m" are accepted.
	// Default: "@every 1m"
	Schedule string `yaml:"schedule"`

	// Retention is how long snapshots are kept before pruning.
	// Default: 24h
	Retention time.Duration `yaml:"retention"`

	// PruneSchedule is the cron expression for deleting expired snapshots.
	// Default: "0 * * * *" (hourly)
	PruneSchedule string `yaml:"prune_schedule"`
}

// StorageConfig contains snapshot storage configuration.
type StorageConfig struct {
	// Driver selects the store.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo), "memory"
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file path. Ignored by the memory store.
	// Default: "data/observations.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// MaxOpenConns caps the connection pool.
	// Default: 1
	MaxOpenConns int `yaml:"max_open_conns"`
}
