package config

import "time"

// Default values for configuration fields.
const (
	// Metrics defaults
	DefaultMetricsEnabled       = true
	DefaultMetricsNamespace     = "metricsys_"
	DefaultMetricsTimersEnabled = true

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Snapshot defaults
	DefaultSnapshotEnabled       = true
	DefaultSnapshotSchedule      = "@every 1m"
	DefaultSnapshotRetention     = 24 * time.Hour
	DefaultSnapshotPruneSchedule = "0 * * * *"

	// Storage defaults
	DefaultStorageDriver       = "sqlite"
	DefaultStoragePath         = "data/observations.db"
	DefaultStorageBusyTimeout  = 5 * time.Second
	DefaultStorageWALMode      = true
	DefaultStorageMaxOpenConns = 1
)

// DefaultMetricsCategories returns the categories enabled by default.
func DefaultMetricsCategories() []string {
	return []string{"process", "go", "snapshot"}
}

// NewDefaultConfig returns a configuration with every field set to its
// default. LoadConfig decodes YAML on top of it, so boolean fields absent
// from the file keep their defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Metrics: MetricsConfig{
			Enabled:       DefaultMetricsEnabled,
			Namespace:     DefaultMetricsNamespace,
			Categories:    DefaultMetricsCategories(),
			TimersEnabled: DefaultMetricsTimersEnabled,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Snapshot: SnapshotConfig{
			Enabled:       DefaultSnapshotEnabled,
			Schedule:      DefaultSnapshotSchedule,
			Retention:     DefaultSnapshotRetention,
			PruneSchedule: DefaultSnapshotPruneSchedule,
		},
		Storage: StorageConfig{
			Driver:       DefaultStorageDriver,
			Path:         DefaultStoragePath,
			BusyTimeout:  DefaultStorageBusyTimeout,
			WALMode:      DefaultStorageWALMode,
			MaxOpenConns: DefaultStorageMaxOpenConns,
		},
	}
}

// ApplyDefaults fills empty string, duration and count fields with their
// defaults. Boolean fields are left alone since false is a valid setting.
func ApplyDefaults(cfg *Config) {
	// Metrics defaults
	if cfg.Metrics.Categories == nil {
		cfg.Metrics.Categories = DefaultMetricsCategories()
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	// Snapshot defaults
	if cfg.Snapshot.Schedule == "" {
		cfg.Snapshot.Schedule = DefaultSnapshotSchedule
	}
	if cfg.Snapshot.Retention == 0 {
		cfg.Snapshot.Retention = DefaultSnapshotRetention
	}
	if cfg.Snapshot.PruneSchedule == "" {
		cfg.Snapshot.PruneSchedule = DefaultSnapshotPruneSchedule
	}

	// Storage defaults
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = DefaultStorageMaxOpenConns
	}
}
