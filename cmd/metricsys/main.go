// metricsys records the values of an application's metrics.
//
// It maintains a registry of Prometheus collectors grouped into categories,
// reads their current values back as observations, and periodically stores
// those observations as snapshots.
//
// Usage:
//
//	# Record snapshots on the configured schedule until interrupted
//	metricsys run --config /path/to/config.yaml
//
//	# Print current observations once
//	metricsys observe --category process --output json
//
//	# Inspect stored snapshots
//	metricsys snapshots list
//	metricsys snapshots show <id>
//
//	# Show version information
//	metricsys version
package main

func main() {
	Execute()
}
