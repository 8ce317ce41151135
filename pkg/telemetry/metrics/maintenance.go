package metrics

import (
	"time"

	"caldera-hq/basalt/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// MaintenanceMetrics tracks metrics related to scheduled maintenance.
//
// Metrics:
//   - caldera_basalt_maintenance_transitions_total: Request state transitions
//   - caldera_basalt_maintenance_execution_seconds: Activity execution duration
//   - caldera_basalt_maintenance_attempts: Attempts per executed request
//   - caldera_basalt_maintenance_spool_requests: Spooled requests by state
type MaintenanceMetrics struct {
	// State transition counter
	transitionsTotal *prometheus.CounterVec

	// Execution duration histogram by status
	execDuration *prometheus.HistogramVec

	// Attempts histogram per executed request
	attempts prometheus.Histogram

	// Spooled requests by state
	spoolRequests *prometheus.GaugeVec
}

// NewMaintenanceMetrics creates and registers maintenance metrics with the
// provided registry.
func NewMaintenanceMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *MaintenanceMetrics {
	mm := &MaintenanceMetrics{
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "maintenance_transitions_total",
				Help:      "Total number of maintenance request state transitions",
			},
			[]string{"state"},
		),

		execDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "maintenance_execution_seconds",
				Help:      "Maintenance activity execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),

		attempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "maintenance_attempts",
				Help:      "Execution attempts per maintenance request",
				Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
			},
		),

		spoolRequests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "maintenance_spool_requests",
				Help:      "Current number of spooled maintenance requests by state",
			},
			[]string{"state"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		mm.transitionsTotal,
		mm.execDuration,
		mm.attempts,
		mm.spoolRequests,
	)

	return mm
}

// RecordTransition records a request entering a new state.
//
// Parameters:
//   - state: The state entered ("pending", "due", "running", "success",
//     "tempfail", "error", "retrylimit", "postpone", "deleted")
//
// Example:
//
//	mm.RecordTransition("due")
func (mm *MaintenanceMetrics) RecordTransition(state string) {
	mm.transitionsTotal.WithLabelValues(state).Inc()
}

// RecordExecution records a completed activity execution.
//
// Parameters:
//   - status: Execution status ("success", "error", "tempfail")
//   - duration: Execution duration
//   - attemptCount: Total attempts made for this request so far
func (mm *MaintenanceMetrics) RecordExecution(status string, duration time.Duration, attemptCount int) {
	mm.execDuration.WithLabelValues(status).Observe(duration.Seconds())
	mm.attempts.Observe(float64(attemptCount))
}

// UpdateSpool updates the gauge for spooled requests in a given state.
//
// Parameters:
//   - state: Request state
//   - count: Current number of requests in that state
func (mm *MaintenanceMetrics) UpdateSpool(state string, count int) {
	mm.spoolRequests.WithLabelValues(state).Set(float64(count))
}
