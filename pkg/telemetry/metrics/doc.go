// Package metrics provides Prometheus metrics collection for Caldera Basalt.
//
// # Overview
//
// The metrics package implements comprehensive Prometheus metrics for monitoring
// configuration builds, the certificate gate, channel synchronization, scheduled
// maintenance, and the build journal. It provides high-performance metric
// collection with minimal overhead (<50µs per update).
//
// # Metrics Categories
//
//   - Build Metrics: Build count, phase durations, role/module counts, conflicts
//   - Compat Metrics: References to renamed and removed options
//   - Gate Metrics: Gate wait durations, poll results, and gate state
//   - Channel Metrics: Sync count, duration, and module availability
//   - Maintenance Metrics: Request state transitions, execution durations, spool size
//   - Journal Metrics: Records written, write failures, and query durations
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(config, registry)
//
//	// Record build metrics
//	collector.RecordBuild(
//		"success",            // status
//		120*time.Millisecond, // duration
//		3,                    // roles enabled
//		17,                   // modules resolved
//	)
//
//	// Record gate metrics
//	collector.RecordGateWait("satisfied", 42*time.Second)
//	collector.UpdateGateSatisfied(true)
//
//	// Record compat metrics
//	collector.RecordCompatHit("renamed", "basalt.roles.statshost.enable")
//
// # Performance
//
// The metrics package is optimized for minimal overhead:
//
//   - Lock-free counters where possible
//   - Pre-allocated metric instances
//   - Configurable cardinality limits
//   - Target: <50µs per metric update
//
// # Custom Histogram Buckets
//
// The collector uses custom histogram buckets optimized for configuration
// management workloads:
//
//	Build Duration: 10ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s, 10s
//	Gate Waits: 100ms, 500ms, 1s, 5s, 15s, 1m, 5m, 15m, 1h
//
// # Prometheus Endpoint
//
// All metrics are exposed on the /metrics endpoint in standard Prometheus format:
//
//	# HELP caldera_basalt_builds_total Total number of configuration builds
//	# TYPE caldera_basalt_builds_total counter
//	caldera_basalt_builds_total{status="success"} 1234
//
// # Cardinality Management
//
// The collector implements cardinality limits to prevent memory issues:
//
//   - Maximum 10,000 unique label combinations per metric
//   - Low-frequency option paths aggregated into "other"
//
// Option paths in compat metrics come from operator-maintained module trees,
// so their cardinality is unbounded from the collector's perspective.
package metrics
