package config

import (
	"fmt"
	"strings"
	"time"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "build.module_dir").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateBuild(&cfg.Build)...)
	errs = append(errs, validateChannel(&cfg.Channel)...)
	errs = append(errs, validateGate(&cfg.Gate)...)
	errs = append(errs, validateMaintenance(&cfg.Maintenance)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateAgent(&cfg.Agent)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateBuild validates build configuration.
func validateBuild(cfg *BuildConfig) []FieldError {
	var errs []FieldError

	for i, role := range cfg.Roles {
		if strings.TrimSpace(role) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("build.roles[%d]", i),
				Message: "role name cannot be empty",
			})
			continue
		}
		if strings.ContainsAny(role, " \t") {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("build.roles[%d]", i),
				Message: fmt.Sprintf("role name %q cannot contain whitespace", role),
			})
		}
	}

	if cfg.ModuleDir == "" {
		errs = append(errs, FieldError{
			Field:   "build.module_dir",
			Message: "module directory is required",
		})
	}
	if cfg.SnapshotDir == "" {
		errs = append(errs, FieldError{
			Field:   "build.snapshot_dir",
			Message: "snapshot directory is required",
		})
	}

	validFormats := map[string]bool{"yaml": true, "json": true}
	if !validFormats[cfg.OutputFormat] {
		errs = append(errs, FieldError{
			Field:   "build.output_format",
			Message: fmt.Sprintf("invalid output format %q: must be 'yaml' or 'json'", cfg.OutputFormat),
		})
	}

	return errs
}

// validateChannel validates channel configuration.
func validateChannel(cfg *ChannelConfig) []FieldError {
	var errs []FieldError

	// If the channel is disabled, skip validation
	if !cfg.Enabled {
		return errs
	}

	if cfg.Repository == "" {
		errs = append(errs, FieldError{
			Field:   "channel.repository",
			Message: "repository is required when the channel is enabled",
		})
	}
	if cfg.Branch == "" {
		errs = append(errs, FieldError{
			Field:   "channel.branch",
			Message: "branch is required when the channel is enabled",
		})
	}
	if cfg.LocalDir == "" {
		errs = append(errs, FieldError{
			Field:   "channel.local_dir",
			Message: "local directory is required when the channel is enabled",
		})
	}

	validAuthTypes := map[string]bool{"none": true, "token": true, "ssh": true}
	if !validAuthTypes[cfg.Auth.Type] {
		errs = append(errs, FieldError{
			Field:   "channel.auth.type",
			Message: fmt.Sprintf("invalid auth type %q: must be 'none', 'token', or 'ssh'", cfg.Auth.Type),
		})
	}
	if cfg.Auth.Type == "token" && cfg.Auth.Token == "" {
		errs = append(errs, FieldError{
			Field:   "channel.auth.token",
			Message: "token is required when auth type is 'token'",
		})
	}
	if cfg.Auth.Type == "ssh" && cfg.Auth.SSHKeyPath == "" {
		errs = append(errs, FieldError{
			Field:   "channel.auth.ssh_key_path",
			Message: "SSH key path is required when auth type is 'ssh'",
		})
	}

	if cfg.Poll.Enabled && cfg.Poll.Interval < time.Second {
		errs = append(errs, FieldError{
			Field:   "channel.poll.interval",
			Message: "poll interval must be at least 1s",
		})
	}
	if cfg.Clone.Depth < 0 {
		errs = append(errs, FieldError{
			Field:   "channel.clone.depth",
			Message: "clone depth must be non-negative",
		})
	}
	if cfg.Clone.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "channel.clone.timeout",
			Message: "clone timeout must be positive",
		})
	}

	return errs
}

// validateGate validates gate configuration.
func validateGate(cfg *GateConfig) []FieldError {
	var errs []FieldError

	if cfg.Dir == "" {
		errs = append(errs, FieldError{
			Field:   "gate.dir",
			Message: "gate directory is required",
		})
	}
	if cfg.Interval <= 0 {
		errs = append(errs, FieldError{
			Field:   "gate.interval",
			Message: "interval must be positive",
		})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "gate.timeout",
			Message: "timeout must be non-negative (0 waits indefinitely)",
		})
	}

	return errs
}

// validateMaintenance validates maintenance configuration.
func validateMaintenance(cfg *MaintenanceConfig) []FieldError {
	var errs []FieldError

	if cfg.SpoolDir == "" {
		errs = append(errs, FieldError{
			Field:   "maintenance.spool_dir",
			Message: "spool directory is required",
		})
	}
	if cfg.Enabled && cfg.Schedule == "" {
		errs = append(errs, FieldError{
			Field:   "maintenance.schedule",
			Message: "schedule is required when maintenance is enabled",
		})
	}
	if cfg.MaxAttempts < 1 {
		errs = append(errs, FieldError{
			Field:   "maintenance.max_attempts",
			Message: "max attempts must be at least 1",
		})
	}
	if cfg.ExecTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "maintenance.exec_timeout",
			Message: "exec timeout must be positive",
		})
	}
	if cfg.Archive.KeepDays < 0 {
		errs = append(errs, FieldError{
			Field:   "maintenance.archive.keep_days",
			Message: "keep days must be non-negative",
		})
	}
	if cfg.Archive.KeepDays > 3650 {
		errs = append(errs, FieldError{
			Field:   "maintenance.archive.keep_days",
			Message: "keep days exceeds reasonable limit (3650 days / 10 years)",
		})
	}

	return errs
}

// validateJournal validates journal configuration.
func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	// If the journal is disabled, skip validation
	if !cfg.Enabled {
		return errs
	}

	validBackends := map[string]bool{"sqlite": true, "memory": true}
	if cfg.Backend == "" {
		errs = append(errs, FieldError{
			Field:   "journal.backend",
			Message: "backend is required when the journal is enabled",
		})
	} else if !validBackends[cfg.Backend] {
		errs = append(errs, FieldError{
			Field:   "journal.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'sqlite' or 'memory'", cfg.Backend),
		})
	}

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "journal.sqlite.path",
				Message: "SQLite path is required when backend is 'sqlite'",
			})
		}
		if cfg.SQLite.MaxOpenConns < 1 {
			errs = append(errs, FieldError{
				Field:   "journal.sqlite.max_open_conns",
				Message: "max open connections must be at least 1",
			})
		}
		if cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   "journal.sqlite.max_idle_conns",
				Message: "max idle connections must be non-negative",
			})
		}
	case "memory":
		if cfg.Memory.MaxRecords < 1 {
			errs = append(errs, FieldError{
				Field:   "journal.memory.max_records",
				Message: "max records must be at least 1",
			})
		}
	}

	if cfg.Query.DefaultLimit < 1 {
		errs = append(errs, FieldError{
			Field:   "journal.query.default_limit",
			Message: "default limit must be at least 1",
		})
	}
	if cfg.Query.MaxLimit < cfg.Query.DefaultLimit {
		errs = append(errs, FieldError{
			Field:   "journal.query.max_limit",
			Message: "max limit must be at least the default limit",
		})
	}

	return errs
}

// validateAgent validates agent configuration.
func validateAgent(cfg *AgentConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "agent.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "agent.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "agent.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "agent.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	// Validate metrics prometheus path
	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path is required when metrics are enabled",
		})
	}
	if cfg.Metrics.Port < 0 || cfg.Metrics.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.port",
			Message: "metrics port must be between 0 and 65535",
		})
	}

	// Validate tracing configuration
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if cfg.Tracing.Sampler != "" && !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	// Validate health check configuration
	if cfg.Health.Enabled {
		if cfg.Health.LivenessPath == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.liveness_path",
				Message: "liveness path is required when health checks are enabled",
			})
		}
		if cfg.Health.ReadinessPath == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.readiness_path",
				Message: "readiness path is required when health checks are enabled",
			})
		}
		if cfg.Health.VersionPath == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.version_path",
				Message: "version path is required when health checks are enabled",
			})
		}

		if cfg.Health.LivenessPath != "" && cfg.Health.LivenessPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.liveness_path",
				Message: "liveness path must start with /",
			})
		}
		if cfg.Health.ReadinessPath != "" && cfg.Health.ReadinessPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.readiness_path",
				Message: "readiness path must start with /",
			})
		}
		if cfg.Health.VersionPath != "" && cfg.Health.VersionPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.version_path",
				Message: "version path must start with /",
			})
		}

		if cfg.Health.CheckTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be positive",
			})
		}
		if cfg.Health.CheckTimeout > 60*time.Second {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout exceeds reasonable limit (60s)",
			})
		}
	}

	return errs
}
