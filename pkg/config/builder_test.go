package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	cfg := Config{}
	ApplyDefaults(&cfg)

	// A pair of roles so build-related tests have something to resolve
	cfg.Build.Roles = []string{"webgateway", "postgresql14"}
	cfg.Journal.Enabled = true
	cfg.Maintenance.Enabled = true

	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithRoles sets the active role list.
func (b *ConfigBuilder) WithRoles(roles ...string) *ConfigBuilder {
	b.cfg.Build.Roles = roles
	return b
}

// WithModuleDir sets the upstream module tree directory.
func (b *ConfigBuilder) WithModuleDir(dir string) *ConfigBuilder {
	b.cfg.Build.ModuleDir = dir
	return b
}

// WithSnapshotDir sets the snapshot root directory.
func (b *ConfigBuilder) WithSnapshotDir(dir string) *ConfigBuilder {
	b.cfg.Build.SnapshotDir = dir
	return b
}

// WithOverridesPath sets the operator overrides file.
func (b *ConfigBuilder) WithOverridesPath(path string) *ConfigBuilder {
	b.cfg.Build.OverridesPath = path
	return b
}

// WithChannel enables the module channel with the given repository.
func (b *ConfigBuilder) WithChannel(repository string) *ConfigBuilder {
	b.cfg.Channel.Enabled = true
	b.cfg.Channel.Repository = repository
	if b.cfg.Channel.Branch == "" {
		b.cfg.Channel.Branch = DefaultChannelBranch
	}
	if b.cfg.Channel.LocalDir == "" {
		b.cfg.Channel.LocalDir = DefaultChannelLocalDir
	}
	return b
}

// WithChannelToken sets token authentication for the channel.
func (b *ConfigBuilder) WithChannelToken(token string) *ConfigBuilder {
	b.cfg.Channel.Auth.Type = "token"
	b.cfg.Channel.Auth.Token = token
	return b
}

// WithGateDir sets the certificate gate directory.
func (b *ConfigBuilder) WithGateDir(dir string) *ConfigBuilder {
	b.cfg.Gate.Dir = dir
	return b
}

// WithGateTimeout bounds the certificate gate wait.
func (b *ConfigBuilder) WithGateTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Gate.Timeout = d
	return b
}

// WithSpoolDir sets the maintenance spool directory.
func (b *ConfigBuilder) WithSpoolDir(dir string) *ConfigBuilder {
	b.cfg.Maintenance.SpoolDir = dir
	return b
}

// WithJournalBackend sets the journal backend.
func (b *ConfigBuilder) WithJournalBackend(backend string) *ConfigBuilder {
	b.cfg.Journal.Backend = backend
	return b
}

// WithJournalSQLitePath sets the SQLite database path for the journal.
func (b *ConfigBuilder) WithJournalSQLitePath(path string) *ConfigBuilder {
	b.cfg.Journal.SQLite.Path = path
	b.cfg.Journal.Backend = "sqlite"
	return b
}

// WithListenAddress sets the agent listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Agent.ListenAddress = addr
	return b
}

// WithLoggingLevel sets the logging level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// WithLoggingFormat sets the logging format.
func (b *ConfigBuilder) WithLoggingFormat(format string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Format = format
	return b
}

// WithMetricsEnabled sets whether metrics are enabled.
func (b *ConfigBuilder) WithMetricsEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Telemetry.Metrics.Enabled = enabled
	return b
}

// WithTracingEnabled sets whether tracing is enabled.
func (b *ConfigBuilder) WithTracingEnabled(enabled bool, endpoint string) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Enabled = enabled
	b.cfg.Telemetry.Tracing.Endpoint = endpoint
	if b.cfg.Telemetry.Tracing.SampleRatio == 0 {
		b.cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	return b
}

// MinimalConfig returns a minimal valid configuration for testing.
// This is useful for tests that don't care about most configuration values.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
