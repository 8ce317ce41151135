package config

import "time"

// Config is the root configuration structure for Caldera Basalt.
// It contains all configuration sections for machine identity, the
// configuration build, the module channel, the certificate gate,
// maintenance scheduling, the build journal, the agent endpoint, and
// telemetry settings.
type Config struct {
	// Platform contains machine identity configuration: the machine
	// name, environment, and placement information reported in logs,
	// traces, and the build journal.
	Platform PlatformConfig `yaml:"platform"`

	// Build contains configuration build settings including the active
	// role list, catalog overlay, module tree locations, and operator
	// overrides.
	Build BuildConfig `yaml:"build"`

	// Channel contains module channel settings for syncing the upstream
	// module tree from a Git repository.
	Channel ChannelConfig `yaml:"channel"`

	// Gate contains certificate gate settings shared by gated units.
	Gate GateConfig `yaml:"gate"`

	// Maintenance contains maintenance request spool and scheduler
	// settings.
	Maintenance MaintenanceConfig `yaml:"maintenance"`

	// Journal contains build journal storage settings.
	Journal JournalConfig `yaml:"journal"`

	// Agent contains the HTTP agent endpoint configuration.
	Agent AgentConfig `yaml:"agent"`

	// Telemetry contains configuration for observability including
	// logging, metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PlatformConfig identifies the machine a build runs on.
type PlatformConfig struct {
	// Machine is the machine name. Used as a label in logs, traces,
	// and journal records. If empty, the hostname is used.
	Machine string `yaml:"machine"`

	// Environment is the deployment environment the machine belongs to
	// (e.g., "production", "staging", "dev").
	// Default: "production"
	Environment string `yaml:"environment"`

	// Location is the data center or region identifier.
	// Example: "rzob", "whq"
	Location string `yaml:"location"`

	// ResourceGroup is the resource group the machine belongs to.
	ResourceGroup string `yaml:"resource_group"`
}

// BuildConfig contains configuration build settings.
type BuildConfig struct {
	// Roles is the ordered list of active role names. Order matters:
	// when two roles define the same scalar option at the same
	// precedence tier, the later role in this list wins.
	Roles []string `yaml:"roles"`

	// CatalogPath is an optional YAML overlay for the builtin role
	// catalog. Roles defined there are added to or replace builtin
	// roles of the same name.
	CatalogPath string `yaml:"catalog_path"`

	// ModuleDir is the root of the current upstream module tree.
	// Default: "/var/lib/basalt/modules"
	ModuleDir string `yaml:"module_dir"`

	// SnapshotDir is the root directory holding pinned module
	// snapshots, one subdirectory per snapshot id.
	// Default: "/var/lib/basalt/snapshots"
	SnapshotDir string `yaml:"snapshot_dir"`

	// OverridesPath is an optional YAML file of operator overrides
	// applied at the highest precedence tier.
	OverridesPath string `yaml:"overrides_path"`

	// OutputFormat controls how the composite configuration is
	// rendered.
	// Options: "yaml", "json"
	// Default: "yaml"
	OutputFormat string `yaml:"output_format"`

	// OutputPath is the file the rendered composite is written to.
	// Empty means standard output.
	OutputPath string `yaml:"output_path"`
}

// ChannelConfig configures Git-based module tree syncing. When enabled,
// the agent keeps a local clone of the channel repository and the build
// reads the upstream module tree from it.
type ChannelConfig struct {
	// Enabled determines if channel syncing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Repository URL (HTTPS or SSH).
	// Example: "https://github.com/company/basalt-channel.git"
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path within the repository to the module tree.
	// Default: "" (repository root)
	Path string `yaml:"path"`

	// LocalDir is where the working clone is kept.
	// Default: "/var/lib/basalt/channel"
	LocalDir string `yaml:"local_dir"`

	// Auth configures repository authentication.
	Auth ChannelAuthConfig `yaml:"auth"`

	// Poll configures change detection.
	Poll ChannelPollConfig `yaml:"poll"`

	// Clone configures repository cloning.
	Clone ChannelCloneConfig `yaml:"clone"`
}

// ChannelAuthConfig configures channel repository authentication.
type ChannelAuthConfig struct {
	// Type: "token", "ssh", "none"
	// - "token": HTTPS with personal access token
	// - "ssh": SSH with public key
	// - "none": public repositories
	// Default: "none"
	Type string `yaml:"type"`

	// Token for HTTPS authentication. This should typically be loaded
	// from an environment variable.
	// Required when Type is "token".
	Token string `yaml:"token"`

	// SSHKeyPath for SSH authentication.
	// Example: "/etc/basalt/channel_key"
	// Required when Type is "ssh".
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase for encrypted SSH keys.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// ChannelPollConfig configures channel change detection.
type ChannelPollConfig struct {
	// Enabled determines if the agent polls for upstream changes.
	// Default: true (when the channel is enabled)
	Enabled bool `yaml:"enabled"`

	// Interval between polls.
	// Default: 5m
	Interval time.Duration `yaml:"interval"`
}

// ChannelCloneConfig configures channel repository cloning.
type ChannelCloneConfig struct {
	// Depth limits clone history. 0 means full history.
	// Default: 1
	Depth int `yaml:"depth"`

	// SingleBranch restricts the clone to the tracked branch.
	// Default: true
	SingleBranch bool `yaml:"single_branch"`

	// Timeout bounds clone and fetch operations.
	// Default: 5m
	Timeout time.Duration `yaml:"timeout"`
}

// GateConfig contains certificate gate settings.
type GateConfig struct {
	// Dir is the directory certificate artifacts appear in.
	// Default: "/var/lib/basalt/certs"
	Dir string `yaml:"dir"`

	// Interval is the pause between existence checks.
	// Default: 1s
	Interval time.Duration `yaml:"interval"`

	// Timeout bounds the total wait. Zero means wait indefinitely,
	// matching the historical behavior of gated units.
	// Default: 0
	Timeout time.Duration `yaml:"timeout"`

	// Watch wakes the poll early when the directory changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// MaintenanceConfig contains maintenance request spool settings.
type MaintenanceConfig struct {
	// Enabled controls whether the agent schedules maintenance runs.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// SpoolDir is the directory holding maintenance requests, one
	// subdirectory per request.
	// Default: "/var/spool/basalt/maintenance"
	SpoolDir string `yaml:"spool_dir"`

	// Schedule is a cron expression for maintenance runs.
	// Default: "*/10 * * * *" (every 10 minutes)
	Schedule string `yaml:"schedule"`

	// MaxAttempts is how often a request is retried before it is
	// archived with the retrylimit outcome.
	// Default: 48
	MaxAttempts int `yaml:"max_attempts"`

	// ExecTimeout bounds a single request execution.
	// Default: 1h
	ExecTimeout time.Duration `yaml:"exec_timeout"`

	// Archive contains archive index settings.
	Archive MaintenanceArchiveConfig `yaml:"archive"`
}

// MaintenanceArchiveConfig contains the archive index settings.
type MaintenanceArchiveConfig struct {
	// Path is the SQLite file indexing archived requests.
	// Default: "/var/spool/basalt/maintenance/archive.db"
	Path string `yaml:"path"`

	// KeepDays is how long archived requests are kept before pruning.
	// 0 means keep forever.
	// Default: 180
	KeepDays int `yaml:"keep_days"`
}

// JournalConfig contains build journal storage settings.
type JournalConfig struct {
	// Enabled controls whether builds are recorded in the journal.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend specifies the journal storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Memory contains memory backend configuration.
	Memory MemoryConfig `yaml:"memory"`

	// Query contains query configuration.
	Query QueryConfig `yaml:"query"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "/var/lib/basalt/journal.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// MemoryConfig contains memory backend configuration.
type MemoryConfig struct {
	// MaxRecords is the maximum number of journal records kept in
	// memory before the oldest are dropped.
	// Default: 10000
	MaxRecords int `yaml:"max_records"`
}

// QueryConfig contains journal query configuration.
type QueryConfig struct {
	// DefaultLimit is the default number of records to return if not
	// specified.
	// Default: 100
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit is the maximum number of records that can be returned
	// in a single query.
	// Default: 10000
	MaxLimit int `yaml:"max_limit"`

	// Timeout is the query execution timeout.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// AgentConfig contains the HTTP agent endpoint configuration.
type AgentConfig struct {
	// ListenAddress is the address and port for the agent to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:9333").
	// Default: "127.0.0.1:9333"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire
	// request, including the body. A zero or negative value means no
	// timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response. A zero or negative value means no timeout.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled. If IdleTimeout is zero,
	// ReadTimeout is used.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown. If requests are still in-flight after this timeout,
	// the server will force shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets enables automatic redaction of secret-bearing
	// values in logs: tokens, passwords, and option values whose path
	// marks them as secret.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`

	// BufferSize is the size of the async log buffer.
	// Logs are written asynchronously to avoid blocking.
	// Default: 10000
	BufferSize int `yaml:"buffer_size"`

	// RedactPatterns contains custom redaction patterns.
	// Each pattern has a name, regex, and replacement string.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Port is an optional separate port for metrics (0 = use the agent
	// port).
	// Default: 0
	Port int `yaml:"port"`

	// Namespace is the metric name prefix.
	// Default: "caldera"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "basalt"
	Subsystem string `yaml:"subsystem"`

	// BuildDurationBuckets defines histogram buckets for configuration
	// build duration (seconds).
	// Default: [0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0]
	BuildDurationBuckets []float64 `yaml:"build_duration_buckets"`

	// GateWaitBuckets defines histogram buckets for certificate gate
	// wait duration (seconds).
	// Default: [0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600]
	GateWaitBuckets []float64 `yaml:"gate_wait_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP trace collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "caldera-basalt"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health
	// checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
