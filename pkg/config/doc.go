// Package config provides configuration management for metricsys.
//
// This package handles loading, validating, and watching configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("metricsys.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("metricsys.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention METRICSYS_SECTION_FIELD.
// For example:
//
//   - METRICSYS_METRICS_CATEGORIES overrides metrics.categories (comma-separated)
//   - METRICSYS_STORAGE_PATH overrides storage.path
//   - METRICSYS_LOGGING_LEVEL overrides logging.level
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// Watcher reloads the file when it changes and hands the new configuration
// to a callback. Invalid files are logged and ignored.
//
// # Example Configuration
//
//	metrics:
//	  enabled: true
//	  namespace: "metricsys_"
//	  categories: [process, go, snapshot]
//	  timers_enabled: true
//
//	logging:
//	  level: "info"
//	  format: "json"
//
//	snapshot:
//	  schedule: "@every 1m"
//	  retention: 24h
//	  prune_schedule: "0 * * * *"
//
//	storage:
//	  driver: "sqlite"
//	  path: "data/observations.db"
//	  busy_timeout: 5s
//	  wal_mode: true
package config
