package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"caldera-hq/basalt/pkg/config"
)

// useConfig writes a config file into a fresh temp directory and points
// the global --config flag at it for the duration of the test. It
// returns the directory so tests can place module trees and spool
// directories next to the config.
//
// loadConfig publishes what it loads as the process-wide config, so the
// swap also clears that slot, here and on cleanup.
func useConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	prev := cfgFile
	cfgFile = path
	config.SetConfig(nil)
	t.Cleanup(func() {
		cfgFile = prev
		config.SetConfig(nil)
	})

	return dir
}

// writeModuleFile writes one module definition file under moduleDir,
// creating intermediate directories.
func writeModuleFile(t *testing.T, moduleDir, name, content string) {
	t.Helper()

	path := filepath.Join(moduleDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create module directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write module file: %v", err)
	}
}

// useBuildScene creates a config with a minimal module tree for the
// builtin redis role and returns the scene directory. The journal is
// disabled; build tests that exercise journal recording write their
// own config.
func useBuildScene(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	moduleDir := filepath.Join(dir, "modules")
	writeModuleFile(t, moduleDir, "services/redis.yaml", `
options:
  basalt.services.redis:
    enable: false
    port: 6379
`)

	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
platform:
  machine: "test01"
  environment: "dev"

build:
  roles:
    - redis
  module_dir: %q
  snapshot_dir: %q

journal:
  enabled: false
`, moduleDir, filepath.Join(dir, "snapshots"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	prev := cfgFile
	cfgFile = configPath
	config.SetConfig(nil)
	t.Cleanup(func() {
		cfgFile = prev
		config.SetConfig(nil)
	})

	return dir
}
