// Package telemetry groups the observability packages of metricsys.
//
// # Components
//
//   - logging: structured logging over log/slog with a runtime-adjustable level
//   - metrics: categorised Prometheus collectors read back as observations
//
// # Usage
//
//	logger, err := logging.New(logging.ConfigFrom(cfg.Logging))
//	if err != nil {
//		return err
//	}
//
//	system := metrics.NewSystem(&cfg.Metrics, logger.Slog())
//	if err := system.Init(); err != nil {
//		return err
//	}
//	defer system.Shutdown()
//
//	for o := range system.StreamAllObservations() {
//		logger.Slog().Debug("observation", "category", o.Category, "name", o.Name, "value", o.Value)
//	}
package telemetry
