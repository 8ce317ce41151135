package metrics

import (
	"time"

	"caldera-hq/basalt/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// JournalMetrics tracks metrics related to the build journal.
//
// Metrics:
//   - caldera_basalt_journal_records_total: Records written by event type
//   - caldera_basalt_journal_write_failures_total: Failed journal writes
//   - caldera_basalt_journal_query_duration_seconds: Query duration
//   - caldera_basalt_journal_records: Records currently in the journal
//
// Write failures never block the recording path, so the failure counter is
// the only signal that records are being lost.
type JournalMetrics struct {
	// Record counter by event type
	recordsTotal *prometheus.CounterVec

	// Failed write counter
	writeFailuresTotal prometheus.Counter

	// Query duration histogram
	queryDuration prometheus.Histogram

	// Records currently stored
	records prometheus.Gauge
}

// NewJournalMetrics creates and registers journal metrics with the provided registry.
func NewJournalMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *JournalMetrics {
	jm := &JournalMetrics{
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "journal_records_total",
				Help:      "Total number of journal records written by event type",
			},
			[]string{"event"},
		),

		writeFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "journal_write_failures_total",
				Help:      "Total number of failed journal writes",
			},
		),

		queryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "journal_query_duration_seconds",
				Help:      "Journal query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		records: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "journal_records",
				Help:      "Current number of records in the journal",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		jm.recordsTotal,
		jm.writeFailuresTotal,
		jm.queryDuration,
		jm.records,
	)

	return jm
}

// RecordEntry records a journal record write.
//
// Parameters:
//   - event: Event type ("build", "activation", "maintenance", "gate", "sync")
func (jm *JournalMetrics) RecordEntry(event string) {
	jm.recordsTotal.WithLabelValues(event).Inc()
}

// RecordWriteFailure records a failed journal write.
func (jm *JournalMetrics) RecordWriteFailure() {
	jm.writeFailuresTotal.Inc()
}

// RecordQuery records the duration of a journal query.
//
// Parameters:
//   - duration: Query duration
func (jm *JournalMetrics) RecordQuery(duration time.Duration) {
	jm.queryDuration.Observe(duration.Seconds())
}

// UpdateRecords updates the current record count gauge.
//
// Parameters:
//   - count: Number of records in the journal
func (jm *JournalMetrics) UpdateRecords(count int) {
	jm.records.Set(float64(count))
}
