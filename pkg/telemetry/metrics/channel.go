package metrics

import (
	"time"

	"caldera-hq/basalt/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ChannelMetrics tracks metrics related to platform channel synchronization.
//
// Metrics:
//   - caldera_basalt_channel_syncs_total: Total channel syncs by status
//   - caldera_basalt_channel_sync_duration_seconds: Sync duration
//   - caldera_basalt_channel_modules: Modules available in the synced tree
//   - caldera_basalt_channel_last_sync_timestamp_seconds: Unix time of the last successful sync
type ChannelMetrics struct {
	// Sync counter by status
	syncsTotal *prometheus.CounterVec

	// Sync duration histogram
	syncDuration prometheus.Histogram

	// Modules in the synced channel tree
	modules prometheus.Gauge

	// Timestamp of the last successful sync
	lastSync prometheus.Gauge
}

// NewChannelMetrics creates and registers channel metrics with the provided registry.
func NewChannelMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ChannelMetrics {
	cm := &ChannelMetrics{
		syncsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "channel_syncs_total",
				Help:      "Total number of channel synchronizations",
			},
			[]string{"status"},
		),

		syncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "channel_sync_duration_seconds",
				Help:      "Channel synchronization duration in seconds",
				Buckets:   cfg.BuildDurationBuckets, // Reuse build duration buckets
			},
		),

		modules: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "channel_modules",
				Help:      "Number of modules available in the synced channel tree",
			},
		),

		lastSync: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "channel_last_sync_timestamp_seconds",
				Help:      "Unix timestamp of the last successful channel sync",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		cm.syncsTotal,
		cm.syncDuration,
		cm.modules,
		cm.lastSync,
	)

	return cm
}

// RecordSync records a channel synchronization attempt.
//
// Parameters:
//   - status: Sync status ("success", "error")
//   - duration: Sync duration including fetch and checkout
//
// Successful syncs also update the last-sync timestamp.
func (cm *ChannelMetrics) RecordSync(status string, duration time.Duration) {
	cm.syncsTotal.WithLabelValues(status).Inc()
	cm.syncDuration.Observe(duration.Seconds())
	if status == "success" {
		cm.lastSync.SetToCurrentTime()
	}
}

// UpdateModules updates the number of modules in the synced tree.
//
// Parameters:
//   - count: Number of module directories found after checkout
func (cm *ChannelMetrics) UpdateModules(count int) {
	cm.modules.Set(float64(count))
}
