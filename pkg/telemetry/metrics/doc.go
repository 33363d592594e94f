// Package metrics provides the metrics system for metricsys: handle
// creation, collector lifecycle, and a read-back path that turns current
// metric values into observations.
//
// # Overview
//
// Metrics are grouped into categories. A Category has a name and an optional
// application prefix, and every metric in it is exposed as
//
//	<application prefix><category name>_<metric name>
//
// Only categories listed in configuration are recorded. Handles created for
// any other category are inert: they accept updates and discard them.
//
// # Usage
//
//	system := metrics.NewSystem(cfg, logger)
//	if err := system.Init(); err != nil {
//		return err
//	}
//
//	requests, err := system.CreateLabelledCounter(category, "requests_total", "Handled requests", "method")
//	if err != nil {
//		return err
//	}
//	requests.WithLabelValues("GET").Inc()
//
//	timer, err := system.CreateTimer(category, "flush", "Flush duration")
//	if err != nil {
//		return err
//	}
//	ctx := timer.StartTimer()
//	flush()
//	ctx.StopTimer()
//
// # Collector replacement
//
// Within a category, registering a collector that exposes a family name
// already exposed by another collector replaces the older collector. The
// new collector may change the help text, label names or type. The
// replacement is logged at warn level. Handles previously obtained from the
// evicted collector keep accepting updates but are no longer exposed.
//
// # Observations
//
// StreamObservations and StreamAllObservations read every registered
// collector and yield one Observation per sample, with the category prefix
// stripped and the sample kind spliced into the label values:
//
//	histogram bucket  [..., "bucket", le]
//	histogram other   [..., "count" | "sum" | "created"]
//	summary quantile  [..., "quantile", q]
//	summary other     [..., "count" | "sum" | "created"]
//	counter created   [..., "created"]
//
// # Exposition
//
// Gatherer gathers from the current Prometheus registry and stays valid
// across replacement and Shutdown. Serving it over HTTP is left to the
// caller.
package metrics
