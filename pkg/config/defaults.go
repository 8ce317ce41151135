package config

import "time"

// Default values for configuration fields.
const (
	// Platform defaults
	DefaultEnvironment = "production"

	// Build defaults
	DefaultModuleDir    = "/var/lib/basalt/modules"
	DefaultSnapshotDir  = "/var/lib/basalt/snapshots"
	DefaultOutputFormat = "yaml"

	// Channel defaults
	DefaultChannelBranch       = "main"
	DefaultChannelLocalDir     = "/var/lib/basalt/channel"
	DefaultChannelAuthType     = "none"
	DefaultChannelPollInterval = 5 * time.Minute
	DefaultChannelCloneDepth   = 1
	DefaultChannelCloneTimeout = 5 * time.Minute

	// Gate defaults
	DefaultGateDir      = "/var/lib/basalt/certs"
	DefaultGateInterval = time.Second

	// Maintenance defaults
	DefaultMaintenanceSpoolDir    = "/var/spool/basalt/maintenance"
	DefaultMaintenanceSchedule    = "*/10 * * * *"
	DefaultMaintenanceMaxAttempts = 48
	DefaultMaintenanceExecTimeout = time.Hour
	DefaultMaintenanceArchivePath = "/var/spool/basalt/maintenance/archive.db"
	DefaultMaintenanceKeepDays    = 180

	// Journal defaults
	DefaultJournalBackend           = "sqlite"
	DefaultJournalSQLitePath        = "/var/lib/basalt/journal.db"
	DefaultJournalSQLiteOpenConns   = 10
	DefaultJournalSQLiteIdleConns   = 5
	DefaultJournalSQLiteBusyTimeout = 5 * time.Second
	DefaultJournalMemoryMaxRecords  = 10000
	DefaultJournalQueryDefaultLimit = 100
	DefaultJournalQueryMaxLimit     = 10000
	DefaultJournalQueryTimeout      = 30 * time.Second

	// Agent defaults
	DefaultListenAddress   = "127.0.0.1:9333"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultLoggingBufferSize   = 10000
	DefaultMetricsEnabled      = true
	DefaultPrometheusPath      = "/metrics"
	DefaultMetricsNamespace    = "caldera"
	DefaultMetricsSubsystem    = "basalt"
	DefaultTracingSampler      = "ratio"
	DefaultTracingSamplingRate = 1.0
	DefaultTracingServiceName  = "caldera-basalt"
	DefaultOTLPTimeout         = 10 * time.Second
	DefaultHealthLivenessPath  = "/health"
	DefaultHealthReadinessPath = "/ready"
	DefaultHealthVersionPath   = "/version"
	DefaultHealthCheckTimeout  = 5 * time.Second
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Platform defaults
	if cfg.Platform.Environment == "" {
		cfg.Platform.Environment = DefaultEnvironment
	}

	// Build defaults
	if cfg.Build.ModuleDir == "" {
		cfg.Build.ModuleDir = DefaultModuleDir
	}
	if cfg.Build.SnapshotDir == "" {
		cfg.Build.SnapshotDir = DefaultSnapshotDir
	}
	if cfg.Build.OutputFormat == "" {
		cfg.Build.OutputFormat = DefaultOutputFormat
	}

	// Channel defaults
	applyChannelDefaults(&cfg.Channel)

	// Gate defaults
	if cfg.Gate.Dir == "" {
		cfg.Gate.Dir = DefaultGateDir
	}
	if cfg.Gate.Interval == 0 {
		cfg.Gate.Interval = DefaultGateInterval
	}
	// Timeout zero stays zero: gated units wait indefinitely unless an
	// operator bounds the wait explicitly.

	// Maintenance defaults
	if cfg.Maintenance.SpoolDir == "" {
		cfg.Maintenance.SpoolDir = DefaultMaintenanceSpoolDir
	}
	if cfg.Maintenance.Schedule == "" {
		cfg.Maintenance.Schedule = DefaultMaintenanceSchedule
	}
	if cfg.Maintenance.MaxAttempts == 0 {
		cfg.Maintenance.MaxAttempts = DefaultMaintenanceMaxAttempts
	}
	if cfg.Maintenance.ExecTimeout == 0 {
		cfg.Maintenance.ExecTimeout = DefaultMaintenanceExecTimeout
	}
	if cfg.Maintenance.Archive.Path == "" {
		cfg.Maintenance.Archive.Path = DefaultMaintenanceArchivePath
	}
	if cfg.Maintenance.Archive.KeepDays == 0 {
		cfg.Maintenance.Archive.KeepDays = DefaultMaintenanceKeepDays
	}

	// Journal defaults
	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = DefaultJournalBackend
	}
	if cfg.Journal.SQLite.Path == "" {
		cfg.Journal.SQLite.Path = DefaultJournalSQLitePath
	}
	if cfg.Journal.SQLite.MaxOpenConns == 0 {
		cfg.Journal.SQLite.MaxOpenConns = DefaultJournalSQLiteOpenConns
	}
	if cfg.Journal.SQLite.MaxIdleConns == 0 {
		cfg.Journal.SQLite.MaxIdleConns = DefaultJournalSQLiteIdleConns
	}
	if !cfg.Journal.SQLite.WALMode {
		cfg.Journal.SQLite.WALMode = true
	}
	if cfg.Journal.SQLite.BusyTimeout == 0 {
		cfg.Journal.SQLite.BusyTimeout = DefaultJournalSQLiteBusyTimeout
	}
	if cfg.Journal.Memory.MaxRecords == 0 {
		cfg.Journal.Memory.MaxRecords = DefaultJournalMemoryMaxRecords
	}
	if cfg.Journal.Query.DefaultLimit == 0 {
		cfg.Journal.Query.DefaultLimit = DefaultJournalQueryDefaultLimit
	}
	if cfg.Journal.Query.MaxLimit == 0 {
		cfg.Journal.Query.MaxLimit = DefaultJournalQueryMaxLimit
	}
	if cfg.Journal.Query.Timeout == 0 {
		cfg.Journal.Query.Timeout = DefaultJournalQueryTimeout
	}

	// Agent defaults
	if cfg.Agent.ListenAddress == "" {
		cfg.Agent.ListenAddress = DefaultListenAddress
	}
	if cfg.Agent.ReadTimeout == 0 {
		cfg.Agent.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Agent.WriteTimeout == 0 {
		cfg.Agent.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Agent.IdleTimeout == 0 {
		cfg.Agent.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Agent.ShutdownTimeout == 0 {
		cfg.Agent.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Telemetry defaults
	applyTelemetryDefaults(&cfg.Telemetry)
}

// applyChannelDefaults applies default values to channel configuration.
func applyChannelDefaults(ch *ChannelConfig) {
	if ch.Branch == "" {
		ch.Branch = DefaultChannelBranch
	}
	if ch.LocalDir == "" {
		ch.LocalDir = DefaultChannelLocalDir
	}
	if ch.Auth.Type == "" {
		ch.Auth.Type = DefaultChannelAuthType
	}
	// An untouched poll section follows the channel switch.
	if !ch.Poll.Enabled && ch.Poll.Interval == 0 {
		ch.Poll.Enabled = ch.Enabled
	}
	if ch.Poll.Interval == 0 {
		ch.Poll.Interval = DefaultChannelPollInterval
	}
	if ch.Clone.Depth == 0 {
		ch.Clone.Depth = DefaultChannelCloneDepth
	}
	if !ch.Clone.SingleBranch {
		ch.Clone.SingleBranch = true
	}
	if ch.Clone.Timeout == 0 {
		ch.Clone.Timeout = DefaultChannelCloneTimeout
	}
}

// applyTelemetryDefaults applies default values to telemetry
// configuration.
func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}
	if t.Logging.BufferSize == 0 {
		t.Logging.BufferSize = DefaultLoggingBufferSize
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultPrometheusPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Metrics.Subsystem == "" {
		t.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(t.Metrics.BuildDurationBuckets) == 0 {
		t.Metrics.BuildDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}
	}
	if len(t.Metrics.GateWaitBuckets) == 0 {
		t.Metrics.GateWaitBuckets = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600}
	}
	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.OTLP.Timeout == 0 {
		t.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultHealthLivenessPath
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultHealthReadinessPath
	}
	if t.Health.VersionPath == "" {
		t.Health.VersionPath = DefaultHealthVersionPath
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
