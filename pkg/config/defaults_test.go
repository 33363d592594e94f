package config

import (
	"slices"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should be valid, got: %v", err)
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics to be enabled by default")
	}
	if !cfg.Metrics.TimersEnabled {
		t.Error("expected timers to be enabled by default")
	}
	if !slices.Equal(cfg.Metrics.Categories, []string{"process", "go", "snapshot"}) {
		t.Errorf("unexpected default categories %v", cfg.Metrics.Categories)
	}
	if !cfg.Storage.WALMode {
		t.Error("expected WAL mode to be enabled by default")
	}
}

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != DefaultLogLevel {
					t.Errorf("expected log level %q, got %q", DefaultLogLevel, cfg.Logging.Level)
				}
				if cfg.Logging.Format != DefaultLogFormat {
					t.Errorf("expected log format %q, got %q", DefaultLogFormat, cfg.Logging.Format)
				}
				if cfg.Snapshot.Schedule != DefaultSnapshotSchedule {
					t.Errorf("expected schedule %q, got %q", DefaultSnapshotSchedule, cfg.Snapshot.Schedule)
				}
				if cfg.Snapshot.Retention != DefaultSnapshotRetention {
					t.Errorf("expected retention %v, got %v", DefaultSnapshotRetention, cfg.Snapshot.Retention)
				}
				if cfg.Storage.Driver != DefaultStorageDriver {
					t.Errorf("expected driver %q, got %q", DefaultStorageDriver, cfg.Storage.Driver)
				}
				if cfg.Storage.BusyTimeout != DefaultStorageBusyTimeout {
					t.Errorf("expected busy timeout %v, got %v", DefaultStorageBusyTimeout, cfg.Storage.BusyTimeout)
				}
				if len(cfg.Metrics.Categories) != 3 {
					t.Errorf("expected default categories, got %v", cfg.Metrics.Categories)
				}
			},
		},
		{
			name: "explicit values are preserved",
			input: Config{
				Logging:  LoggingConfig{Level: "debug", Format: "text"},
				Snapshot: SnapshotConfig{Schedule: "@every 5m", Retention: time.Hour},
				Storage:  StorageConfig{Driver: "memory", BusyTimeout: time.Second},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
					t.Errorf("logging overwritten: %+v", cfg.Logging)
				}
				if cfg.Snapshot.Schedule != "@every 5m" || cfg.Snapshot.Retention != time.Hour {
					t.Errorf("snapshot overwritten: %+v", cfg.Snapshot)
				}
				if cfg.Storage.Driver != "memory" || cfg.Storage.BusyTimeout != time.Second {
					t.Errorf("storage overwritten: %+v", cfg.Storage)
				}
			},
		},
		{
			name:  "explicit empty category list is preserved",
			input: Config{Metrics: MetricsConfig{Categories: []string{}}},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Metrics.Categories == nil || len(cfg.Metrics.Categories) != 0 {
					t.Errorf("expected empty categories, got %v", cfg.Metrics.Categories)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}
