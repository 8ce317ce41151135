package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := MinimalConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		// No module dir, no snapshot dir, no gate dir, no agent listen
		// address, empty telemetry logging level
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}

	// Verify error message includes multiple errors
	errMsg := validationErr.Error()
	if !strings.Contains(errMsg, "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", errMsg)
	}
}

func TestValidate_BuildConfig(t *testing.T) {
	tests := []struct {
		name       string
		build      BuildConfig
		wantError  bool
		errorField string
	}{
		{
			name: "valid build config",
			build: BuildConfig{
				Roles:        []string{"webgateway", "postgresql14"},
				ModuleDir:    DefaultModuleDir,
				SnapshotDir:  DefaultSnapshotDir,
				OutputFormat: DefaultOutputFormat,
			},
			wantError: false,
		},
		{
			name: "empty role name",
			build: BuildConfig{
				Roles:        []string{"webgateway", ""},
				ModuleDir:    DefaultModuleDir,
				SnapshotDir:  DefaultSnapshotDir,
				OutputFormat: DefaultOutputFormat,
			},
			wantError:  true,
			errorField: "build.roles[1]",
		},
		{
			name: "role name with whitespace",
			build: BuildConfig{
				Roles:        []string{"web gateway"},
				ModuleDir:    DefaultModuleDir,
				SnapshotDir:  DefaultSnapshotDir,
				OutputFormat: DefaultOutputFormat,
			},
			wantError:  true,
			errorField: "build.roles[0]",
		},
		{
			name: "missing module dir",
			build: BuildConfig{
				SnapshotDir:  DefaultSnapshotDir,
				OutputFormat: DefaultOutputFormat,
			},
			wantError:  true,
			errorField: "build.module_dir",
		},
		{
			name: "missing snapshot dir",
			build: BuildConfig{
				ModuleDir:    DefaultModuleDir,
				OutputFormat: DefaultOutputFormat,
			},
			wantError:  true,
			errorField: "build.snapshot_dir",
		},
		{
			name: "invalid output format",
			build: BuildConfig{
				ModuleDir:    DefaultModuleDir,
				SnapshotDir:  DefaultSnapshotDir,
				OutputFormat: "toml",
			},
			wantError:  true,
			errorField: "build.output_format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateBuild(&tt.build)
			if tt.wantError && len(errs) == 0 {
				t.Error("expected validation error, got none")
			}
			if !tt.wantError && len(errs) > 0 {
				t.Errorf("expected no validation error, got: %v", errs)
			}
			if tt.wantError && len(errs) > 0 {
				found := false
				for _, err := range errs {
					if err.Field == tt.errorField {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected error for field %q, got errors: %v", tt.errorField, errs)
				}
			}
		})
	}
}

func TestValidate_ChannelConfig(t *testing.T) {
	tests := []struct {
		name       string
		channel    ChannelConfig
		wantError  bool
		errorField string
	}{
		{
			name:      "disabled channel skips validation",
			channel:   ChannelConfig{Enabled: false},
			wantError: false,
		},
		{
			name: "valid enabled channel",
			channel: ChannelConfig{
				Enabled:    true,
				Repository: "https://git.example.com/platform/modules.git",
				Branch:     DefaultChannelBranch,
				LocalDir:   DefaultChannelLocalDir,
				Auth:       ChannelAuthConfig{Type: "none"},
				Clone:      ChannelCloneConfig{Depth: DefaultChannelCloneDepth},
			},
			wantError: false,
		},
		{
			name: "enabled without repository",
			channel: ChannelConfig{
				Enabled:  true,
				Branch:   DefaultChannelBranch,
				LocalDir: DefaultChannelLocalDir,
				Auth:     ChannelAuthConfig{Type: "none"},
			},
			wantError:  true,
			errorField: "channel.repository",
		},
		{
			name: "enabled without branch",
			channel: ChannelConfig{
				Enabled:    true,
				Repository: "https://git.example.com/platform/modules.git",
				LocalDir:   DefaultChannelLocalDir,
				Auth:       ChannelAuthConfig{Type: "none"},
			},
			wantError:  true,
			errorField: "channel.branch",
		},
		{
			name: "invalid auth type",
			channel: ChannelConfig{
				Enabled:    true,
				Repository: "https://git.example.com/platform/modules.git",
				Branch:     DefaultChannelBranch,
				LocalDir:   DefaultChannelLocalDir,
				Auth:       ChannelAuthConfig{Type: "password"},
			},
			wantError:  true,
			errorField: "channel.auth.type",
		},
		{
			name: "token auth without token",
			channel: ChannelConfig{
				Enabled:    true,
				Repository: "https://git.example.com/platform/modules.git",
				Branch:     DefaultChannelBranch,
				LocalDir:   DefaultChannelLocalDir,
				Auth:       ChannelAuthConfig{Type: "token"},
			},
			wantError:  true,
			errorField: "channel.auth.token",
		},
		{
			name: "ssh auth without key path",
			channel: ChannelConfig{
				Enabled:    true,
				Repository: "git@git.example.com:platform/modules.git",
				Branch:     DefaultChannelBranch,
				LocalDir:   DefaultChannelLocalDir,
				Auth:       ChannelAuthConfig{Type: "ssh"},
			},
			wantError:  true,
			errorField: "channel.auth.ssh_key_path",
		},
		{
			name: "sub-second poll interval",
			channel: ChannelConfig{
				Enabled:    true,
				Repository: "https://git.example.com/platform/modules.git",
				Branch:     DefaultChannelBranch,
				LocalDir:   DefaultChannelLocalDir,
				Auth:       ChannelAuthConfig{Type: "none"},
				Poll: ChannelPollConfig{
					Enabled:  true,
					Interval: 100 * time.Millisecond,
				},
			},
			wantError:  true,
			errorField: "channel.poll.interval",
		},
		{
			name: "negative clone depth",
			channel: ChannelConfig{
				Enabled:    true,
				Repository: "https://git.example.com/platform/modules.git",
				Branch:     DefaultChannelBranch,
				LocalDir:   DefaultChannelLocalDir,
				Auth:       ChannelAuthConfig{Type: "none"},
				Clone:      ChannelCloneConfig{Depth: -1},
			},
			wantError:  true,
			errorField: "channel.clone.depth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateChannel(&tt.channel)
			if tt.wantError && len(errs) == 0 {
				t.Error("expected validation error, got none")
			}
			if !tt.wantError && len(errs) > 0 {
				t.Errorf("expected no validation error, got: %v", errs)
			}
			if tt.wantError && len(errs) > 0 {
				found := false
				for _, err := range errs {
					if err.Field == tt.errorField {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected error for field %q, got errors: %v", tt.errorField, errs)
				}
			}
		})
	}
}

func TestValidate_GateConfig(t *testing.T) {
	tests := []struct {
		name       string
		gate       GateConfig
		wantError  bool
		errorField string
	}{
		{
			name: "valid gate config",
			gate: GateConfig{
				Dir:      DefaultGateDir,
				Interval: DefaultGateInterval,
			},
			wantError: false,
		},
		{
			name: "indefinite timeout is valid",
			gate: GateConfig{
				Dir:      DefaultGateDir,
				Interval: DefaultGateInterval,
				Timeout:  0,
			},
			wantError: false,
		},
		{
			name: "missing dir",
			gate: GateConfig{
				Interval: DefaultGateInterval,
			},
			wantError:  true,
			errorField: "gate.dir",
		},
		{
			name: "zero interval",
			gate: GateConfig{
				Dir: DefaultGateDir,
			},
			wantError:  true,
			errorField: "gate.interval",
		},
		{
			name: "negative timeout",
			gate: GateConfig{
				Dir:      DefaultGateDir,
				Interval: DefaultGateInterval,
				Timeout:  -time.Second,
			},
			wantError:  true,
			errorField: "gate.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateGate(&tt.gate)
			if tt.wantError && len(errs) == 0 {
				t.Error("expected validation error, got none")
			}
			if !tt.wantError && len(errs) > 0 {
				t.Errorf("expected no validation error, got: %v", errs)
			}
			if tt.wantError && len(errs) > 0 {
				found := false
				for _, err := range errs {
					if err.Field == tt.errorField {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected error for field %q, got errors: %v", tt.errorField, errs)
				}
			}
		})
	}
}

func TestValidate_MaintenanceConfig(t *testing.T) {
	tests := []struct {
		name        string
		maintenance MaintenanceConfig
		wantError   bool
		errorField  string
	}{
		{
			name: "valid maintenance config",
			maintenance: MaintenanceConfig{
				Enabled:     true,
				SpoolDir:    DefaultMaintenanceSpoolDir,
				Schedule:    DefaultMaintenanceSchedule,
				MaxAttempts: DefaultMaintenanceMaxAttempts,
				ExecTimeout: DefaultMaintenanceExecTimeout,
				Archive: MaintenanceArchiveConfig{
					Path:     DefaultMaintenanceArchivePath,
					KeepDays: DefaultMaintenanceKeepDays,
				},
			},
			wantError: false,
		},
		{
			name: "missing spool dir",
			maintenance: MaintenanceConfig{
				Schedule:    DefaultMaintenanceSchedule,
				MaxAttempts: DefaultMaintenanceMaxAttempts,
			},
			wantError:  true,
			errorField: "maintenance.spool_dir",
		},
		{
			name: "enabled without schedule",
			maintenance: MaintenanceConfig{
				Enabled:     true,
				SpoolDir:    DefaultMaintenanceSpoolDir,
				MaxAttempts: DefaultMaintenanceMaxAttempts,
			},
			wantError:  true,
			errorField: "maintenance.schedule",
		},
		{
			name: "zero max attempts",
			maintenance: MaintenanceConfig{
				SpoolDir: DefaultMaintenanceSpoolDir,
				Schedule: DefaultMaintenanceSchedule,
			},
			wantError:  true,
			errorField: "maintenance.max_attempts",
		},
		{
			name: "excessive keep days",
			maintenance: MaintenanceConfig{
				SpoolDir:    DefaultMaintenanceSpoolDir,
				Schedule:    DefaultMaintenanceSchedule,
				MaxAttempts: DefaultMaintenanceMaxAttempts,
				Archive:     MaintenanceArchiveConfig{KeepDays: 4000},
			},
			wantError:  true,
			errorField: "maintenance.archive.keep_days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateMaintenance(&tt.maintenance)
			if tt.wantError && len(errs) == 0 {
				t.Error("expected validation error, got none")
			}
			if !tt.wantError && len(errs) > 0 {
				t.Errorf("expected no validation error, got: %v", errs)
			}
			if tt.wantError && len(errs) > 0 {
				found := false
				for _, err := range errs {
					if err.Field == tt.errorField {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected error for field %q, got errors: %v", tt.errorField, errs)
				}
			}
		})
	}
}

func TestValidate_JournalConfig(t *testing.T) {
	tests := []struct {
		name       string
		journal    JournalConfig
		wantError  bool
		errorField string
	}{
		{
			name:      "disabled journal skips validation",
			journal:   JournalConfig{Enabled: false, Backend: "bogus"},
			wantError: false,
		},
		{
			name: "valid sqlite backend",
			journal: JournalConfig{
				Enabled: true,
				Backend: "sqlite",
				SQLite: SQLiteConfig{
					Path:         DefaultJournalSQLitePath,
					MaxOpenConns: DefaultJournalSQLiteOpenConns,
					MaxIdleConns: DefaultJournalSQLiteIdleConns,
				},
				Query: QueryConfig{
					DefaultLimit: DefaultJournalQueryDefaultLimit,
					MaxLimit:     DefaultJournalQueryMaxLimit,
				},
			},
			wantError: false,
		},
		{
			name: "valid memory backend",
			journal: JournalConfig{
				Enabled: true,
				Backend: "memory",
				Memory:  MemoryConfig{MaxRecords: DefaultJournalMemoryMaxRecords},
				Query: QueryConfig{
					DefaultLimit: DefaultJournalQueryDefaultLimit,
					MaxLimit:     DefaultJournalQueryMaxLimit,
				},
			},
			wantError: false,
		},
		{
			name: "invalid backend",
			journal: JournalConfig{
				Enabled: true,
				Backend: "postgres",
				Query: QueryConfig{
					DefaultLimit: DefaultJournalQueryDefaultLimit,
					MaxLimit:     DefaultJournalQueryMaxLimit,
				},
			},
			wantError:  true,
			errorField: "journal.backend",
		},
		{
			name: "sqlite without path",
			journal: JournalConfig{
				Enabled: true,
				Backend: "sqlite",
				SQLite: SQLiteConfig{
					MaxOpenConns: DefaultJournalSQLiteOpenConns,
				},
				Query: QueryConfig{
					DefaultLimit: DefaultJournalQueryDefaultLimit,
					MaxLimit:     DefaultJournalQueryMaxLimit,
				},
			},
			wantError:  true,
			errorField: "journal.sqlite.path",
		},
		{
			name: "memory with zero max records",
			journal: JournalConfig{
				Enabled: true,
				Backend: "memory",
				Query: QueryConfig{
					DefaultLimit: DefaultJournalQueryDefaultLimit,
					MaxLimit:     DefaultJournalQueryMaxLimit,
				},
			},
			wantError:  true,
			errorField: "journal.memory.max_records",
		},
		{
			name: "max limit below default limit",
			journal: JournalConfig{
				Enabled: true,
				Backend: "memory",
				Memory:  MemoryConfig{MaxRecords: DefaultJournalMemoryMaxRecords},
				Query: QueryConfig{
					DefaultLimit: 500,
					MaxLimit:     100,
				},
			},
			wantError:  true,
			errorField: "journal.query.max_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateJournal(&tt.journal)
			if tt.wantError && len(errs) == 0 {
				t.Error("expected validation error, got none")
			}
			if !tt.wantError && len(errs) > 0 {
				t.Errorf("expected no validation error, got: %v", errs)
			}
			if tt.wantError && len(errs) > 0 {
				found := false
				for _, err := range errs {
					if err.Field == tt.errorField {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected error for field %q, got errors: %v", tt.errorField, errs)
				}
			}
		})
	}
}

func TestValidate_AgentConfig(t *testing.T) {
	tests := []struct {
		name       string
		agent      AgentConfig
		wantError  bool
		errorField string
	}{
		{
			name: "valid agent config",
			agent: AgentConfig{
				ListenAddress: DefaultListenAddress,
				ReadTimeout:   DefaultReadTimeout,
				WriteTimeout:  DefaultWriteTimeout,
				IdleTimeout:   DefaultIdleTimeout,
			},
			wantError: false,
		},
		{
			name:       "empty listen address",
			agent:      AgentConfig{},
			wantError:  true,
			errorField: "agent.listen_address",
		},
		{
			name: "negative read timeout",
			agent: AgentConfig{
				ListenAddress: DefaultListenAddress,
				ReadTimeout:   -1,
			},
			wantError:  true,
			errorField: "agent.read_timeout",
		},
		{
			name: "negative write timeout",
			agent: AgentConfig{
				ListenAddress: DefaultListenAddress,
				WriteTimeout:  -1,
			},
			wantError:  true,
			errorField: "agent.write_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateAgent(&tt.agent)
			if tt.wantError && len(errs) == 0 {
				t.Error("expected validation error, got none")
			}
			if !tt.wantError && len(errs) > 0 {
				t.Errorf("expected no validation error, got: %v", errs)
			}
			if tt.wantError && len(errs) > 0 {
				found := false
				for _, err := range errs {
					if err.Field == tt.errorField {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected error for field %q, got errors: %v", tt.errorField, errs)
				}
			}
		})
	}
}

func TestValidate_TelemetryConfig(t *testing.T) {
	validTelemetry := func() TelemetryConfig {
		return TelemetryConfig{
			Logging: LoggingConfig{
				Level:  DefaultLoggingLevel,
				Format: DefaultLoggingFormat,
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    DefaultPrometheusPath,
			},
			Tracing: TracingConfig{
				Sampler:     DefaultTracingSampler,
				SampleRatio: DefaultTracingSamplingRate,
			},
			Health: HealthConfig{
				Enabled:       true,
				LivenessPath:  DefaultHealthLivenessPath,
				ReadinessPath: DefaultHealthReadinessPath,
				VersionPath:   DefaultHealthVersionPath,
				CheckTimeout:  DefaultHealthCheckTimeout,
			},
		}
	}

	tests := []struct {
		name       string
		mutate     func(*TelemetryConfig)
		wantError  bool
		errorField string
	}{
		{
			name:      "valid telemetry config",
			mutate:    func(cfg *TelemetryConfig) {},
			wantError: false,
		},
		{
			name: "invalid logging level",
			mutate: func(cfg *TelemetryConfig) {
				cfg.Logging.Level = "verbose"
			},
			wantError:  true,
			errorField: "telemetry.logging.level",
		},
		{
			name: "invalid logging format",
			mutate: func(cfg *TelemetryConfig) {
				cfg.Logging.Format = "xml"
			},
			wantError:  true,
			errorField: "telemetry.logging.format",
		},
		{
			name: "metrics enabled without path",
			mutate: func(cfg *TelemetryConfig) {
				cfg.Metrics.Path = ""
			},
			wantError:  true,
			errorField: "telemetry.metrics.path",
		},
		{
			name: "metrics port out of range",
			mutate: func(cfg *TelemetryConfig) {
				cfg.Metrics.Port = 70000
			},
			wantError:  true,
			errorField: "telemetry.metrics.port",
		},
		{
			name: "tracing enabled without endpoint",
			mutate: func(cfg *TelemetryConfig) {
				cfg.Tracing.Enabled = true
			},
			wantError:  true,
			errorField: "telemetry.tracing.endpoint",
		},
		{
			name: "invalid sampler",
			mutate: func(cfg *TelemetryConfig) {
				cfg.Tracing.Sampler = "sometimes"
			},
			wantError:  true,
			errorField: "telemetry.tracing.sampler",
		},
		{
			name: "sample ratio above one",
			mutate: func(cfg *TelemetryConfig) {
				cfg.Tracing.SampleRatio = 1.5
			},
			wantError:  true,
			errorField: "telemetry.tracing.sample_ratio",
		},
		{
			name: "liveness path without leading slash",
			mutate: func(cfg *TelemetryConfig) {
				cfg.Health.LivenessPath = "health"
			},
			wantError:  true,
			errorField: "telemetry.health.liveness_path",
		},
		{
			name: "excessive health check timeout",
			mutate: func(cfg *TelemetryConfig) {
				cfg.Health.CheckTimeout = 5 * time.Minute
			},
			wantError:  true,
			errorField: "telemetry.health.check_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			telemetry := validTelemetry()
			tt.mutate(&telemetry)

			errs := validateTelemetry(&telemetry)
			if tt.wantError && len(errs) == 0 {
				t.Error("expected validation error, got none")
			}
			if !tt.wantError && len(errs) > 0 {
				t.Errorf("expected no validation error, got: %v", errs)
			}
			if tt.wantError && len(errs) > 0 {
				found := false
				for _, err := range errs {
					if err.Field == tt.errorField {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected error for field %q, got errors: %v", tt.errorField, errs)
				}
			}
		})
	}
}

func TestFieldError_Error(t *testing.T) {
	err := FieldError{Field: "gate.dir", Message: "gate directory is required"}
	want := "gate.dir: gate directory is required"
	if err.Error() != want {
		t.Errorf("FieldError.Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      ValidationError
		contains []string
	}{
		{
			name:     "empty error list",
			err:      ValidationError{},
			contains: []string{"configuration validation failed"},
		},
		{
			name: "single error",
			err: ValidationError{Errors: []FieldError{
				{Field: "gate.dir", Message: "gate directory is required"},
			}},
			contains: []string{"configuration validation failed", "gate.dir"},
		},
		{
			name: "multiple errors",
			err: ValidationError{Errors: []FieldError{
				{Field: "gate.dir", Message: "gate directory is required"},
				{Field: "build.module_dir", Message: "module directory is required"},
			}},
			contains: []string{"2 errors", "gate.dir", "build.module_dir"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("expected message to contain %q, got: %s", want, msg)
				}
			}
		})
	}
}
