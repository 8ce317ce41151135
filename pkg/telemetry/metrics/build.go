package metrics

import (
	"time"

	"caldera-hq/basalt/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// BuildMetrics tracks metrics related to configuration builds.
//
// Metrics:
//   - caldera_basalt_builds_total: Total builds by status
//   - caldera_basalt_build_duration_seconds: Build duration by phase
//   - caldera_basalt_build_active_roles: Roles enabled in the last build
//   - caldera_basalt_build_resolved_modules: Modules resolved in the last build
//   - caldera_basalt_build_merge_conflicts_total: Option conflicts by kind
//   - caldera_basalt_compat_option_hits_total: Legacy option references by lifecycle
type BuildMetrics struct {
	// Build counter by status
	buildsTotal *prometheus.CounterVec

	// Build duration histogram by phase
	duration *prometheus.HistogramVec

	// Roles enabled in the most recent build
	activeRoles prometheus.Gauge

	// Module definitions resolved in the most recent build
	resolvedModules prometheus.Gauge

	// Merge conflict counter by kind
	conflictsTotal *prometheus.CounterVec

	// Renamed/removed option reference counter
	compatHitsTotal *prometheus.CounterVec
}

// NewBuildMetrics creates and registers build metrics with the provided registry.
func NewBuildMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BuildMetrics {
	bm := &BuildMetrics{
		buildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "builds_total",
				Help:      "Total number of configuration builds",
			},
			[]string{"status"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "build_duration_seconds",
				Help:      "Configuration build duration in seconds by phase",
				Buckets:   cfg.BuildDurationBuckets,
			},
			[]string{"phase"},
		),

		activeRoles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "build_active_roles",
				Help:      "Number of roles enabled in the most recent build",
			},
		),

		resolvedModules: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "build_resolved_modules",
				Help:      "Number of module definitions resolved in the most recent build",
			},
		),

		conflictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "build_merge_conflicts_total",
				Help:      "Total number of option merge conflicts by kind",
			},
			[]string{"kind"},
		),

		compatHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "compat_option_hits_total",
				Help:      "Total number of references to renamed or removed options",
			},
			[]string{"lifecycle", "option"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		bm.buildsTotal,
		bm.duration,
		bm.activeRoles,
		bm.resolvedModules,
		bm.conflictsTotal,
		bm.compatHitsTotal,
	)

	return bm
}

// RecordBuild records a completed build.
//
// Parameters:
//   - status: Build status ("success", "error", "conflict")
//   - duration: Total build duration
//
// The total duration is observed under the "total" phase. Individual
// phases are recorded separately via RecordPhase.
func (bm *BuildMetrics) RecordBuild(status string, duration time.Duration) {
	bm.buildsTotal.WithLabelValues(status).Inc()
	bm.duration.WithLabelValues("total").Observe(duration.Seconds())
}

// RecordPhase records the duration of a single build phase.
//
// Parameters:
//   - phase: Phase name ("catalog", "resolve", "merge", "render")
//   - duration: Phase duration
func (bm *BuildMetrics) RecordPhase(phase string, duration time.Duration) {
	bm.duration.WithLabelValues(phase).Observe(duration.Seconds())
}

// UpdateCounts updates the role and module gauges after a build.
//
// Parameters:
//   - roles: Number of roles enabled in the build
//   - modules: Number of module definitions resolved
func (bm *BuildMetrics) UpdateCounts(roles, modules int) {
	bm.activeRoles.Set(float64(roles))
	bm.resolvedModules.Set(float64(modules))
}

// RecordConflict records an option merge conflict.
//
// Parameters:
//   - kind: Conflict kind ("type_mismatch", "duplicate_definition")
//
// Conflicts surface misconfigured module trees where two definitions at
// the same precedence tier disagree about an option's shape.
func (bm *BuildMetrics) RecordConflict(kind string) {
	bm.conflictsTotal.WithLabelValues(kind).Inc()
}

// RecordCompatHit records a reference to a renamed or removed option.
//
// Parameters:
//   - lifecycle: Option lifecycle state ("renamed", "removed")
//   - option: The legacy option path (may be "other" when aggregated)
//
// Example:
//
//	bm.RecordCompatHit("renamed", "basalt.roles.statshost.enable")
func (bm *BuildMetrics) RecordCompatHit(lifecycle, option string) {
	bm.compatHitsTotal.WithLabelValues(lifecycle, option).Inc()
}
