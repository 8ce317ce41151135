package metrics

import (
	"fmt"
	"sync"
	"time"

	"caldera-hq/basalt/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in Caldera Basalt.
// It manages metric registration, collection, and provides a unified interface
// for recording metrics across all components.
//
// The collector is designed for high-performance with minimal overhead (<50µs per update):
//   - Pre-allocated metric instances
//   - Lock-free counters where possible
//   - Cardinality limits to prevent memory issues
//   - Custom histogram buckets optimized for build and gate-wait durations
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Configuration build metrics
	buildMetrics *BuildMetrics

	// Certificate gate metrics
	gateMetrics *GateMetrics

	// Channel sync metrics
	channelMetrics *ChannelMetrics

	// Maintenance scheduling metrics
	maintenanceMetrics *MaintenanceMetrics

	// Build journal metrics
	journalMetrics *JournalMetrics

	// Cardinality tracking
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "caldera",
//		Subsystem: "basalt",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "caldera"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "basalt"
	}
	if len(cfg.BuildDurationBuckets) == 0 {
		// Optimized for catalog/merge latencies (10ms - 10s)
		cfg.BuildDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}
	}
	if len(cfg.GateWaitBuckets) == 0 {
		// Gate waits range from sub-second to an hour
		cfg.GateWaitBuckets = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000), // Max 10K unique label sets
	}

	// Initialize metric subsystems
	c.buildMetrics = NewBuildMetrics(cfg, registry)
	c.gateMetrics = NewGateMetrics(cfg, registry)
	c.channelMetrics = NewChannelMetrics(cfg, registry)
	c.maintenanceMetrics = NewMaintenanceMetrics(cfg, registry)
	c.journalMetrics = NewJournalMetrics(cfg, registry)

	return c
}

// RecordBuild records metrics for a completed configuration build.
//
// Parameters:
//   - status: Build status ("success", "error", "conflict")
//   - duration: Total build duration
//   - roles: Number of roles enabled in this build
//   - modules: Number of module definitions resolved
//
// Example:
//
//	collector.RecordBuild(
//		"success",
//		120*time.Millisecond,
//		3,
//		17,
//	)
func (c *Collector) RecordBuild(status string, duration time.Duration, roles, modules int) {
	if !c.config.Enabled {
		return
	}

	c.buildMetrics.RecordBuild(status, duration)
	c.buildMetrics.UpdateCounts(roles, modules)
}

// RecordBuildPhase records the duration of a single build phase.
//
// Parameters:
//   - phase: Phase name ("catalog", "resolve", "merge", "render")
//   - duration: Phase duration
func (c *Collector) RecordBuildPhase(phase string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.buildMetrics.RecordPhase(phase, duration)
}

// RecordMergeConflict records an option conflict detected during a merge.
//
// Parameters:
//   - kind: Conflict kind ("type_mismatch", "duplicate_definition")
func (c *Collector) RecordMergeConflict(kind string) {
	if !c.config.Enabled {
		return
	}

	c.buildMetrics.RecordConflict(kind)
}

// RecordCompatHit records a build that referenced a renamed or removed option.
//
// Parameters:
//   - lifecycle: Option lifecycle state ("renamed", "removed")
//   - option: The legacy option path that was referenced
//
// Example:
//
//	collector.RecordCompatHit("renamed", "basalt.roles.statshost.enable")
func (c *Collector) RecordCompatHit(lifecycle, option string) {
	if !c.config.Enabled {
		return
	}

	// Check cardinality limit; option paths are operator-controlled
	labelSet := fmt.Sprintf("compat:%s:%s", lifecycle, option)
	if !c.cardinalityLimiter.Allow(labelSet) {
		// Aggregate into "other" to prevent cardinality explosion
		option = "other"
	}

	c.buildMetrics.RecordCompatHit(lifecycle, option)
}

// RecordGateWait records a completed certificate gate wait.
//
// Parameters:
//   - outcome: Wait outcome ("satisfied", "timeout", "cancelled")
//   - duration: How long the wait lasted
func (c *Collector) RecordGateWait(outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.gateMetrics.RecordWait(outcome, duration)
}

// RecordGatePoll records the result of a single gate poll cycle.
//
// Parameters:
//   - found: Number of expected artifacts present on disk
//   - missing: Number of expected artifacts still absent
func (c *Collector) RecordGatePoll(found, missing int) {
	if !c.config.Enabled {
		return
	}

	c.gateMetrics.RecordPoll(found, missing)
}

// UpdateGateSatisfied updates the current gate state.
//
// The gauge is 1 when all expected artifacts are present, 0 otherwise.
func (c *Collector) UpdateGateSatisfied(satisfied bool) {
	if !c.config.Enabled {
		return
	}

	c.gateMetrics.UpdateSatisfied(satisfied)
}

// RecordChannelSync records metrics for a channel synchronization.
//
// Parameters:
//   - status: Sync status ("success", "error")
//   - duration: Sync duration including fetch and checkout
func (c *Collector) RecordChannelSync(status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.channelMetrics.RecordSync(status, duration)
}

// UpdateChannelModules updates the number of modules available in the
// synced channel tree.
func (c *Collector) UpdateChannelModules(count int) {
	if !c.config.Enabled {
		return
	}

	c.channelMetrics.UpdateModules(count)
}

// RecordMaintenanceTransition records a maintenance request entering a
// new state.
//
// Parameters:
//   - state: The state entered ("pending", "due", "running", "success",
//     "error", "retrylimit", "postponed", "deleted")
func (c *Collector) RecordMaintenanceTransition(state string) {
	if !c.config.Enabled {
		return
	}

	c.maintenanceMetrics.RecordTransition(state)
}

// RecordMaintenanceExecution records metrics for a completed maintenance
// activity execution.
//
// Parameters:
//   - status: Execution status ("success", "error", "tempfail")
//   - duration: Execution duration
//   - attempts: Total attempts made for this request so far
func (c *Collector) RecordMaintenanceExecution(status string, duration time.Duration, attempts int) {
	if !c.config.Enabled {
		return
	}

	c.maintenanceMetrics.RecordExecution(status, duration, attempts)
}

// UpdateSpoolSize updates the number of spooled maintenance requests in a
// given state.
func (c *Collector) UpdateSpoolSize(state string, count int) {
	if !c.config.Enabled {
		return
	}

	c.maintenanceMetrics.UpdateSpool(state, count)
}

// RecordJournalEntry records a journal record write.
//
// Parameters:
//   - event: Event type ("build", "activation", "maintenance", "gate", "sync")
func (c *Collector) RecordJournalEntry(event string) {
	if !c.config.Enabled {
		return
	}

	c.journalMetrics.RecordEntry(event)
}

// RecordJournalWriteFailure records a failed journal write.
func (c *Collector) RecordJournalWriteFailure() {
	if !c.config.Enabled {
		return
	}

	c.journalMetrics.RecordWriteFailure()
}

// RecordJournalQuery records the duration of a journal query.
func (c *Collector) RecordJournalQuery(duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.journalMetrics.RecordQuery(duration)
}

// UpdateJournalRecords updates the current number of records in the journal.
func (c *Collector) UpdateJournalRecords(count int) {
	if !c.config.Enabled {
		return
	}

	c.journalMetrics.UpdateRecords(count)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
