package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestInitialize(t *testing.T) {
	// Reset global state
	current = nil
	once = *new(sync.Once)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
platform:
  machine: "web01"

build:
  roles:
    - webgateway
  module_dir: "/var/lib/basalt/modules"
  snapshot_dir: "/var/lib/basalt/snapshots"

telemetry:
  logging:
    level: "info"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	err := Initialize(configPath)
	if err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config after initialization")
	}

	if cfg.Platform.Machine != "web01" {
		t.Errorf("expected machine %q, got %q", "web01", cfg.Platform.Machine)
	}
}

func TestInitialize_MultipleCallsIgnored(t *testing.T) {
	// Reset global state
	current = nil
	once = *new(sync.Once)

	tmpDir := t.TempDir()
	configPath1 := filepath.Join(tmpDir, "config1.yaml")
	configPath2 := filepath.Join(tmpDir, "config2.yaml")

	config1Content := `
platform:
  machine: "web01"

build:
  roles:
    - webgateway
  module_dir: "/var/lib/basalt/modules"
  snapshot_dir: "/var/lib/basalt/snapshots"

telemetry:
  logging:
    level: "info"
    format: "json"
`

	config2Content := `
platform:
  machine: "loghost02"

build:
  roles:
    - loghost
  module_dir: "/srv/basalt/modules"
  snapshot_dir: "/srv/basalt/snapshots"

telemetry:
  logging:
    level: "debug"
    format: "text"
`

	if err := os.WriteFile(configPath1, []byte(config1Content), 0644); err != nil {
		t.Fatalf("failed to write config1 file: %v", err)
	}
	if err := os.WriteFile(configPath2, []byte(config2Content), 0644); err != nil {
		t.Fatalf("failed to write config2 file: %v", err)
	}

	// First initialization
	err := Initialize(configPath1)
	if err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	firstConfig := GetConfig()

	// Second initialization should be ignored
	Initialize(configPath2)

	secondConfig := GetConfig()

	// Should still have the first config
	if firstConfig.Platform.Machine != secondConfig.Platform.Machine {
		t.Error("second Initialize call should be ignored")
	}
	if firstConfig.Build.ModuleDir != secondConfig.Build.ModuleDir {
		t.Error("second Initialize call should be ignored")
	}
}

func TestGetConfig_BeforeInitialize(t *testing.T) {
	// Reset global state
	current = nil

	cfg := GetConfig()
	if cfg != nil {
		t.Error("expected nil config before initialization")
	}
}

func TestSetConfig(t *testing.T) {
	// Reset global state
	current = nil

	testCfg := NewTestConfig().
		WithListenAddress("192.168.1.1:7070").
		Build()

	SetConfig(testCfg)

	retrievedCfg := GetConfig()
	if retrievedCfg == nil {
		t.Fatal("expected non-nil config after SetConfig")
	}

	if retrievedCfg.Agent.ListenAddress != "192.168.1.1:7070" {
		t.Errorf("expected listen address %q, got %q", "192.168.1.1:7070", retrievedCfg.Agent.ListenAddress)
	}
}

func TestReloadConfig(t *testing.T) {
	// Reset global state
	current = nil
	once = *new(sync.Once)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	initialContent := `
platform:
  machine: "web01"

build:
  roles:
    - webgateway
  module_dir: "/var/lib/basalt/modules"
  snapshot_dir: "/var/lib/basalt/snapshots"

telemetry:
  logging:
    level: "info"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(initialContent), 0644); err != nil {
		t.Fatalf("failed to write initial config file: %v", err)
	}

	// Initialize with initial config
	if err := Initialize(configPath); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	initialCfg := GetConfig()
	if initialCfg.Platform.Machine != "web01" {
		t.Error("initial config not loaded correctly")
	}

	// Update the file
	updatedContent := `
platform:
  machine: "web01"

build:
  roles:
    - webgateway
    - loghost
  module_dir: "/srv/basalt/modules"
  snapshot_dir: "/srv/basalt/snapshots"

telemetry:
  logging:
    level: "debug"
    format: "text"
`

	if err := os.WriteFile(configPath, []byte(updatedContent), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	// Reload config
	if err := ReloadConfig(configPath); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}

	reloadedCfg := GetConfig()
	if reloadedCfg.Build.ModuleDir != "/srv/basalt/modules" {
		t.Errorf("expected updated module dir %q, got %q", "/srv/basalt/modules", reloadedCfg.Build.ModuleDir)
	}
	if len(reloadedCfg.Build.Roles) != 2 {
		t.Errorf("expected 2 roles after reload, got %d", len(reloadedCfg.Build.Roles))
	}
	if reloadedCfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected updated logging level %q, got %q", "debug", reloadedCfg.Telemetry.Logging.Level)
	}
}

func TestReloadConfig_ValidationFailure(t *testing.T) {
	// Reset global state
	current = nil
	once = *new(sync.Once)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	validContent := `
build:
  roles:
    - webgateway
  module_dir: "/var/lib/basalt/modules"
  snapshot_dir: "/var/lib/basalt/snapshots"

telemetry:
  logging:
    level: "info"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(validContent), 0644); err != nil {
		t.Fatalf("failed to write initial config file: %v", err)
	}

	// Initialize with valid config
	if err := Initialize(configPath); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	originalCfg := GetConfig()

	// Update file with invalid config
	invalidContent := `
build:
  roles:
    - webgateway
  module_dir: "/var/lib/basalt/modules"
  snapshot_dir: "/var/lib/basalt/snapshots"

telemetry:
  logging:
    level: "invalid"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("failed to write invalid config file: %v", err)
	}

	// Try to reload - should fail
	err := ReloadConfig(configPath)
	if err == nil {
		t.Fatal("expected error when reloading invalid config")
	}

	// Original config should be preserved
	currentCfg := GetConfig()
	if currentCfg.Build.ModuleDir != originalCfg.Build.ModuleDir {
		t.Error("original config should be preserved on reload failure")
	}
}

func TestMustGetConfig(t *testing.T) {
	// Reset global state
	current = nil
	once = *new(sync.Once)

	// Test panic when not initialized
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected MustGetConfig to panic when not initialized")
		}
	}()

	MustGetConfig()
}

func TestMustGetConfig_AfterInitialize(t *testing.T) {
	// Reset global state
	current = nil
	once = *new(sync.Once)

	SetConfig(MinimalConfig())

	// Should not panic
	cfg := MustGetConfig()
	if cfg == nil {
		t.Error("expected non-nil config from MustGetConfig")
	}
}
