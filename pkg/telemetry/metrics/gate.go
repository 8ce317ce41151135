package metrics

import (
	"time"

	"caldera-hq/basalt/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// GateMetrics tracks metrics related to the certificate gate.
//
// Metrics:
//   - caldera_basalt_gate_wait_seconds: Gate wait duration by outcome
//   - caldera_basalt_gate_polls_total: Poll cycle artifact checks by result
//   - caldera_basalt_gate_missing_artifacts: Artifacts still absent after the last poll
//   - caldera_basalt_gate_satisfied: Current gate state (1=open, 0=waiting)
type GateMetrics struct {
	// Wait duration histogram by outcome
	waitDuration *prometheus.HistogramVec

	// Per-poll artifact check counter
	pollsTotal *prometheus.CounterVec

	// Artifacts missing after the last poll
	missingArtifacts prometheus.Gauge

	// Gate state gauge (1=satisfied, 0=waiting)
	satisfied prometheus.Gauge
}

// NewGateMetrics creates and registers gate metrics with the provided registry.
func NewGateMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GateMetrics {
	gm := &GateMetrics{
		waitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_wait_seconds",
				Help:      "Certificate gate wait duration in seconds by outcome",
				Buckets:   cfg.GateWaitBuckets,
			},
			[]string{"outcome"},
		),

		pollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_polls_total",
				Help:      "Total number of gate artifact checks by result",
			},
			[]string{"result"},
		),

		missingArtifacts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_missing_artifacts",
				Help:      "Number of expected artifacts still absent after the last poll",
			},
		),

		satisfied: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_satisfied",
				Help:      "Certificate gate state (1=satisfied, 0=waiting)",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		gm.waitDuration,
		gm.pollsTotal,
		gm.missingArtifacts,
		gm.satisfied,
	)

	return gm
}

// RecordWait records a completed gate wait.
//
// Parameters:
//   - outcome: Wait outcome ("satisfied", "timeout", "cancelled")
//   - duration: How long the wait lasted
//
// Example:
//
//	gm.RecordWait("satisfied", 42*time.Second)
func (gm *GateMetrics) RecordWait(outcome string, duration time.Duration) {
	gm.waitDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordPoll records the result of a single poll cycle.
//
// Parameters:
//   - found: Number of expected artifacts present on disk
//   - missing: Number of expected artifacts still absent
func (gm *GateMetrics) RecordPoll(found, missing int) {
	gm.pollsTotal.WithLabelValues("found").Add(float64(found))
	gm.pollsTotal.WithLabelValues("missing").Add(float64(missing))
	gm.missingArtifacts.Set(float64(missing))
}

// UpdateSatisfied updates the current gate state.
//
// Parameters:
//   - isSatisfied: true when every expected artifact is present
func (gm *GateMetrics) UpdateSatisfied(isSatisfied bool) {
	value := 0.0
	if isSatisfied {
		value = 1.0
	}
	gm.satisfied.Set(value)
}
