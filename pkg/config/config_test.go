package config

import (
	"testing"
	"time"
)

func TestNewTestConfig(t *testing.T) {
	cfg := NewTestConfig().Build()

	// Verify defaults are applied
	if cfg.Build.ModuleDir != DefaultModuleDir {
		t.Errorf("expected module dir %q, got %q", DefaultModuleDir, cfg.Build.ModuleDir)
	}

	if cfg.Gate.Interval != DefaultGateInterval {
		t.Errorf("expected gate interval %v, got %v", DefaultGateInterval, cfg.Gate.Interval)
	}

	if cfg.Journal.Backend != DefaultJournalBackend {
		t.Errorf("expected journal backend %q, got %q", DefaultJournalBackend, cfg.Journal.Backend)
	}

	// Verify test roles are added
	if len(cfg.Build.Roles) == 0 {
		t.Error("expected at least one role, got none")
	}
}

func TestConfigBuilder_WithRoles(t *testing.T) {
	cfg := NewTestConfig().
		WithRoles("loghost", "statshost").
		Build()

	if len(cfg.Build.Roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(cfg.Build.Roles))
	}
	if cfg.Build.Roles[0] != "loghost" || cfg.Build.Roles[1] != "statshost" {
		t.Errorf("expected [loghost statshost], got %v", cfg.Build.Roles)
	}
}

func TestConfigBuilder_WithChannel(t *testing.T) {
	cfg := NewTestConfig().
		WithChannel("https://github.com/example/basalt-channel.git").
		Build()

	if !cfg.Channel.Enabled {
		t.Error("expected channel to be enabled")
	}
	if cfg.Channel.Repository != "https://github.com/example/basalt-channel.git" {
		t.Errorf("unexpected repository %q", cfg.Channel.Repository)
	}
	if cfg.Channel.Branch == "" {
		t.Error("expected branch to be set")
	}
	if cfg.Channel.LocalDir == "" {
		t.Error("expected local dir to be set")
	}
}

func TestConfigBuilder_WithChannelToken(t *testing.T) {
	cfg := NewTestConfig().
		WithChannel("https://github.com/example/basalt-channel.git").
		WithChannelToken("test-token").
		Build()

	if cfg.Channel.Auth.Type != "token" {
		t.Errorf("expected auth type %q, got %q", "token", cfg.Channel.Auth.Type)
	}
	if cfg.Channel.Auth.Token != "test-token" {
		t.Errorf("expected token %q, got %q", "test-token", cfg.Channel.Auth.Token)
	}
}

func TestConfigBuilder_WithJournalBackends(t *testing.T) {
	tests := []struct {
		name    string
		builder func() *ConfigBuilder
		want    string
	}{
		{
			name: "sqlite",
			builder: func() *ConfigBuilder {
				return NewTestConfig().WithJournalSQLitePath("/tmp/journal.db")
			},
			want: "sqlite",
		},
		{
			name: "memory",
			builder: func() *ConfigBuilder {
				return NewTestConfig().WithJournalBackend("memory")
			},
			want: "memory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.builder().Build()
			if cfg.Journal.Backend != tt.want {
				t.Errorf("expected backend %q, got %q", tt.want, cfg.Journal.Backend)
			}
		})
	}
}

func TestConfigBuilder_WithGateTimeout(t *testing.T) {
	cfg := NewTestConfig().
		WithGateTimeout(10 * time.Minute).
		Build()

	if cfg.Gate.Timeout != 10*time.Minute {
		t.Errorf("expected gate timeout %v, got %v", 10*time.Minute, cfg.Gate.Timeout)
	}
}

func TestConfigBuilder_ChainedCalls(t *testing.T) {
	cfg := NewTestConfig().
		WithListenAddress("0.0.0.0:9400").
		WithModuleDir("/srv/basalt/modules").
		WithLoggingLevel("debug").
		WithMetricsEnabled(true).
		Build()

	if cfg.Agent.ListenAddress != "0.0.0.0:9400" {
		t.Error("chained WithListenAddress failed")
	}
	if cfg.Build.ModuleDir != "/srv/basalt/modules" {
		t.Error("chained WithModuleDir failed")
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Error("chained WithLoggingLevel failed")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("chained WithMetricsEnabled failed")
	}
}

func TestMinimalConfig(t *testing.T) {
	cfg := MinimalConfig()

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	// Verify it's a valid config that would pass validation
	if err := Validate(cfg); err != nil {
		t.Errorf("minimal config should be valid, got error: %v", err)
	}
}
