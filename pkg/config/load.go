package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Apply defaults
	ApplyDefaults(&cfg)

	// Validate
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CALDERA_SECTION_FIELD (e.g., CALDERA_BUILD_MODULE_DIR).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	// First load from file (this already applies defaults)
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format CALDERA_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Platform overrides
	if val := os.Getenv("CALDERA_PLATFORM_MACHINE"); val != "" {
		cfg.Platform.Machine = val
	}
	if val := os.Getenv("CALDERA_PLATFORM_ENVIRONMENT"); val != "" {
		cfg.Platform.Environment = val
	}
	if val := os.Getenv("CALDERA_PLATFORM_LOCATION"); val != "" {
		cfg.Platform.Location = val
	}
	if val := os.Getenv("CALDERA_PLATFORM_RESOURCE_GROUP"); val != "" {
		cfg.Platform.ResourceGroup = val
	}

	// Build overrides
	if val := os.Getenv("CALDERA_BUILD_ROLES"); val != "" {
		cfg.Build.Roles = splitRoleList(val)
	}
	if val := os.Getenv("CALDERA_BUILD_CATALOG_PATH"); val != "" {
		cfg.Build.CatalogPath = val
	}
	if val := os.Getenv("CALDERA_BUILD_MODULE_DIR"); val != "" {
		cfg.Build.ModuleDir = val
	}
	if val := os.Getenv("CALDERA_BUILD_SNAPSHOT_DIR"); val != "" {
		cfg.Build.SnapshotDir = val
	}
	if val := os.Getenv("CALDERA_BUILD_OVERRIDES_PATH"); val != "" {
		cfg.Build.OverridesPath = val
	}
	if val := os.Getenv("CALDERA_BUILD_OUTPUT_FORMAT"); val != "" {
		cfg.Build.OutputFormat = val
	}

	// Channel overrides
	if val := os.Getenv("CALDERA_CHANNEL_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Channel.Enabled = b
		}
	}
	if val := os.Getenv("CALDERA_CHANNEL_REPOSITORY"); val != "" {
		cfg.Channel.Repository = val
	}
	if val := os.Getenv("CALDERA_CHANNEL_BRANCH"); val != "" {
		cfg.Channel.Branch = val
	}
	if val := os.Getenv("CALDERA_CHANNEL_LOCAL_DIR"); val != "" {
		cfg.Channel.LocalDir = val
	}
	if val := os.Getenv("CALDERA_CHANNEL_AUTH_TYPE"); val != "" {
		cfg.Channel.Auth.Type = val
	}
	if val := os.Getenv("CALDERA_CHANNEL_AUTH_TOKEN"); val != "" {
		cfg.Channel.Auth.Token = val
	}
	if val := os.Getenv("CALDERA_CHANNEL_AUTH_SSH_KEY_PATH"); val != "" {
		cfg.Channel.Auth.SSHKeyPath = val
	}

	// Gate overrides
	if val := os.Getenv("CALDERA_GATE_DIR"); val != "" {
		cfg.Gate.Dir = val
	}
	if val := os.Getenv("CALDERA_GATE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Gate.Interval = d
		}
	}
	if val := os.Getenv("CALDERA_GATE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Gate.Timeout = d
		}
	}
	if val := os.Getenv("CALDERA_GATE_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Gate.Watch = b
		}
	}

	// Maintenance overrides
	if val := os.Getenv("CALDERA_MAINTENANCE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Maintenance.Enabled = b
		}
	}
	if val := os.Getenv("CALDERA_MAINTENANCE_SPOOL_DIR"); val != "" {
		cfg.Maintenance.SpoolDir = val
	}
	if val := os.Getenv("CALDERA_MAINTENANCE_SCHEDULE"); val != "" {
		cfg.Maintenance.Schedule = val
	}
	if val := os.Getenv("CALDERA_MAINTENANCE_MAX_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Maintenance.MaxAttempts = i
		}
	}
	if val := os.Getenv("CALDERA_MAINTENANCE_ARCHIVE_PATH"); val != "" {
		cfg.Maintenance.Archive.Path = val
	}

	// Journal overrides
	if val := os.Getenv("CALDERA_JOURNAL_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Journal.Enabled = b
		}
	}
	if val := os.Getenv("CALDERA_JOURNAL_BACKEND"); val != "" {
		cfg.Journal.Backend = val
	}
	if val := os.Getenv("CALDERA_JOURNAL_SQLITE_PATH"); val != "" {
		cfg.Journal.SQLite.Path = val
	}

	// Agent overrides
	if val := os.Getenv("CALDERA_AGENT_LISTEN_ADDRESS"); val != "" {
		cfg.Agent.ListenAddress = val
	}
	if val := os.Getenv("CALDERA_AGENT_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Agent.ReadTimeout = d
		}
	}
	if val := os.Getenv("CALDERA_AGENT_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Agent.WriteTimeout = d
		}
	}
	if val := os.Getenv("CALDERA_AGENT_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Agent.ShutdownTimeout = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("CALDERA_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CALDERA_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("CALDERA_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("CALDERA_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("CALDERA_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("CALDERA_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("CALDERA_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

// splitRoleList splits a comma-separated role list, trimming whitespace
// and dropping empty entries.
func splitRoleList(val string) []string {
	parts := strings.Split(val, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		roles = append(roles, p)
	}
	return roles
}
