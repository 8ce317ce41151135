package modules

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func TestParseModuleFile_FlattensNestedOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "postgresql.yaml", `
options:
  basalt.services.postgresql:
    enable: false
    port: 5432
    settings:
      sharedBuffers: 1GB
`)

	options, err := ParseModuleFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"basalt.services.postgresql.enable":                 false,
		"basalt.services.postgresql.port":                   5432,
		"basalt.services.postgresql.settings.sharedBuffers": "1GB",
	}
	if !reflect.DeepEqual(options, want) {
		t.Errorf("expected %v, got %v", want, options)
	}
}

func TestParseModuleFile_MixedFlatAndNested(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "redis.yaml", `
options:
  basalt.services.redis.port: 6379
  basalt.services.redis:
    maxmemory: 512mb
`)

	options, err := ParseModuleFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if options["basalt.services.redis.port"] != 6379 {
		t.Errorf("expected port 6379, got %v", options["basalt.services.redis.port"])
	}
	if options["basalt.services.redis.maxmemory"] != "512mb" {
		t.Errorf("expected maxmemory 512mb, got %v", options["basalt.services.redis.maxmemory"])
	}
}

func TestParseModuleFile_ListValue(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "firewall.yaml", `
options:
  basalt.network.firewall.allowedTCPPorts:
    - 80
    - 443
`)

	options, err := ParseModuleFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, ok := options["basalt.network.firewall.allowedTCPPorts"].([]any)
	if !ok {
		t.Fatalf("expected a list, got %T", options["basalt.network.firewall.allowedTCPPorts"])
	}
	if len(list) != 2 || list[0] != 80 || list[1] != 443 {
		t.Errorf("expected [80 443], got %v", list)
	}
}

func TestParseModuleFile_DuplicatePathRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dup.yaml", `
options:
  basalt.services.redis.port: 6379
  basalt.services.redis:
    port: 6380
`)

	_, err := ParseModuleFile(path)
	if err == nil {
		t.Fatal("expected an error for a duplicate option path")
	}
	if !strings.Contains(err.Error(), "defined twice") {
		t.Errorf("expected a duplicate-path error, got: %v", err)
	}
}

func TestParseModuleFile_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.yaml", "options: [unclosed")

	_, err := ParseModuleFile(path)
	if err == nil {
		t.Fatal("expected an error for invalid YAML")
	}
}

func TestParseModuleFile_Missing(t *testing.T) {
	_, err := ParseModuleFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("expected a not-exist error, got: %v", err)
	}
}

func TestParseModuleFile_EmptyOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.yaml", "options: {}\n")

	options, err := ParseModuleFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(options) != 0 {
		t.Errorf("expected no options, got %v", options)
	}
}
