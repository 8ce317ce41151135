package main

import (
	"path/filepath"
	"reflect"
	"testing"

	"caldera-hq/basalt/pkg/config"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single entry",
			input: "redis",
			want:  []string{"redis"},
		},
		{
			name:  "multiple entries",
			input: "redis,webgateway,loghost",
			want:  []string{"redis", "webgateway", "loghost"},
		},
		{
			name:  "whitespace trimmed",
			input: " redis , webgateway ",
			want:  []string{"redis", "webgateway"},
		},
		{
			name:  "empty entries dropped",
			input: "redis,,webgateway,",
			want:  []string{"redis", "webgateway"},
		},
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
		{
			name:  "only separators",
			input: ", ,",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitList(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitList(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	prev := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "nope.yaml")
	config.SetConfig(nil)
	t.Cleanup(func() {
		cfgFile = prev
		config.SetConfig(nil)
	})

	if _, err := loadConfig(); err == nil {
		t.Error("loadConfig() with explicit missing path should return error")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	useConfig(t, `
platform:
  machine: "web01"
  environment: "production"
`)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() returned error: %v", err)
	}

	if cfg.Platform.Machine != "web01" {
		t.Errorf("Platform.Machine = %q, want %q", cfg.Platform.Machine, "web01")
	}
	if cfg.Platform.Environment != "production" {
		t.Errorf("Platform.Environment = %q, want %q", cfg.Platform.Environment, "production")
	}
	// Defaults fill the rest.
	if cfg.Build.OutputFormat != "yaml" {
		t.Errorf("Build.OutputFormat = %q, want default %q", cfg.Build.OutputFormat, "yaml")
	}

	// A second call returns the published instance, not a re-read.
	again, err := loadConfig()
	if err != nil {
		t.Fatalf("second loadConfig() returned error: %v", err)
	}
	if again != cfg {
		t.Error("second loadConfig() did not return the process-wide instance")
	}
}

func TestRootCommandExists(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd is nil")
	}

	if rootCmd.Use != "caldera" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "caldera")
	}

	// Every subcommand is registered.
	subcommands := []string{"build", "roles", "options", "gate", "certs", "maintenance", "journal", "sync", "agent", "validate", "version"}
	for _, name := range subcommands {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
