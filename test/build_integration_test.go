//go:build integration

package test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"caldera-hq/basalt/pkg/catalog"
	"caldera-hq/basalt/pkg/channel"
	"caldera-hq/basalt/pkg/compat"
	"caldera-hq/basalt/pkg/config"
	"caldera-hq/basalt/pkg/journal"
	"caldera-hq/basalt/pkg/journal/recorder"
	journalstorage "caldera-hq/basalt/pkg/journal/storage"
	"caldera-hq/basalt/pkg/modules"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestBuildPipelineIntegration walks a build through every package
// boundary: catalog, registry, resolver, renderer, journal.
func TestBuildPipelineIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	moduleDir := filepath.Join(tmpDir, "modules")
	writeModule(t, moduleDir, "services/redis.yaml", `
options:
  basalt.services.redis:
    enable: false
    port: 6379
`)

	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("failed to load builtin catalog: %v", err)
	}

	set := catalog.NewRegistry(cat).Resolve([]string{"redis"})

	resolver, err := modules.NewResolver(cat, compat.NewShim(compat.Builtin()), &modules.Config{
		ModuleDir:   moduleDir,
		SnapshotDir: filepath.Join(tmpDir, "snapshots"),
	}, quietLogger())
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}

	started := time.Now()
	composite, err := resolver.Resolve(context.Background(), set, nil)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if composite.Len() == 0 {
		t.Fatal("composite has no options")
	}

	output, err := composite.RenderYAML()
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.Contains(output, []byte("redis")) {
		t.Errorf("rendered output missing redis options:\n%s", output)
	}
	// The role tier switches the module default on.
	if !bytes.Contains(output, []byte("enable: true")) {
		t.Errorf("rendered output missing role enable:\n%s", output)
	}

	// Record the build and read it back.
	store := journalstorage.NewMemoryStorage(100)
	defer store.Close()

	rec := recorder.NewRecorder(store, nil)
	err = rec.RecordBuild(context.Background(), &recorder.BuildResult{
		Machine:     "inttest01",
		Environment: "dev",
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Composite:   composite,
		Output:      output,
	})
	if err != nil {
		t.Fatalf("failed to record build: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("failed to flush recorder: %v", err)
	}

	records, err := store.Query(context.Background(), &journal.Query{Limit: 10})
	if err != nil {
		t.Fatalf("journal query failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	record := records[0]
	if record.Status != "success" {
		t.Errorf("record status = %q, want success", record.Status)
	}
	if record.OutputHash == "" {
		t.Error("record missing output hash")
	}
	if record.OptionCount != composite.Len() {
		t.Errorf("record option count = %d, want %d", record.OptionCount, composite.Len())
	}
}

// TestDeprecatedOptionFlowIntegration verifies a renamed option is
// rewritten during resolution and lands in the journal record.
func TestDeprecatedOptionFlowIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	moduleDir := filepath.Join(tmpDir, "modules")
	writeModule(t, moduleDir, "services/redis.yaml", `
options:
  basalt.roles.redis:
    listenPort: 6380
`)

	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("failed to load builtin catalog: %v", err)
	}
	set := catalog.NewRegistry(cat).Resolve([]string{"redis"})

	resolver, err := modules.NewResolver(cat, compat.NewShim(compat.Builtin()), &modules.Config{
		ModuleDir:   moduleDir,
		SnapshotDir: filepath.Join(tmpDir, "snapshots"),
	}, quietLogger())
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}

	composite, err := resolver.Resolve(context.Background(), set, nil)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	renames := composite.Renames()
	if len(renames) != 1 {
		t.Fatalf("expected 1 rename, got %d", len(renames))
	}
	if renames[0].From != "basalt.roles.redis.listenPort" {
		t.Errorf("rename from = %q", renames[0].From)
	}
	if renames[0].To != "basalt.services.redis.port" {
		t.Errorf("rename to = %q", renames[0].To)
	}

	// The rewritten path carries the value.
	output, err := composite.RenderYAML()
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.Contains(output, []byte("port: 6380")) {
		t.Errorf("rewritten option missing from output:\n%s", output)
	}
	if bytes.Contains(output, []byte("listenPort")) {
		t.Errorf("deprecated path leaked into output:\n%s", output)
	}

	// And the journal keeps the rewrite.
	store := journalstorage.NewMemoryStorage(100)
	defer store.Close()

	rec := recorder.NewRecorder(store, nil)
	err = rec.RecordBuild(context.Background(), &recorder.BuildResult{
		Machine:    "inttest01",
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
		Composite:  composite,
		Output:     output,
	})
	if err != nil {
		t.Fatalf("failed to record build: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("failed to flush recorder: %v", err)
	}

	records, err := store.Query(context.Background(), &journal.Query{Limit: 10})
	if err != nil {
		t.Fatalf("journal query failed: %v", err)
	}
	if len(records) != 1 || len(records[0].Renames) != 1 {
		t.Fatalf("journal record missing rename: %+v", records)
	}
}

// TestChannelBuildIntegration syncs a module tree from a git channel
// and builds from the clone.
func TestChannelBuildIntegration(t *testing.T) {
	sourceDir := t.TempDir()
	repo, err := gogit.PlainInit(sourceDir, false)
	if err != nil {
		t.Fatalf("failed to init channel repo: %v", err)
	}

	writeModule(t, filepath.Join(sourceDir, "modules"), "services/redis.yaml", `
options:
  basalt.services.redis:
    enable: false
    port: 6379
`)

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := worktree.Add("modules/services/redis.yaml"); err != nil {
		t.Fatalf("failed to add module: %v", err)
	}
	if _, err := worktree.Commit("add redis module", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	}); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	cloneDir := filepath.Join(t.TempDir(), "channel")
	chCfg := channelTestConfig(sourceDir, cloneDir)

	ch, err := channel.New(chCfg, quietLogger())
	if err != nil {
		t.Fatalf("failed to create channel: %v", err)
	}

	result, err := ch.Sync(context.Background())
	if err != nil {
		t.Fatalf("channel sync failed: %v", err)
	}
	if !result.Cloned {
		t.Error("expected initial sync to clone")
	}

	// Build from the synced tree.
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("failed to load builtin catalog: %v", err)
	}
	set := catalog.NewRegistry(cat).Resolve([]string{"redis"})

	resolver, err := modules.NewResolver(cat, compat.NewShim(compat.Builtin()), &modules.Config{
		ModuleDir:   filepath.Join(cloneDir, "modules"),
		SnapshotDir: filepath.Join(cloneDir, "snapshots"),
	}, quietLogger())
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}

	composite, err := resolver.Resolve(context.Background(), set, nil)
	if err != nil {
		t.Fatalf("resolve from channel clone failed: %v", err)
	}
	if composite.Len() == 0 {
		t.Error("composite from channel clone has no options")
	}

	// A second sync finds nothing new.
	result, err = ch.Sync(context.Background())
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if result.HadChanges {
		t.Error("second sync should report no changes")
	}
}

// Helpers

func writeModule(t *testing.T, moduleDir, name, content string) {
	t.Helper()

	path := filepath.Join(moduleDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create module directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write module file: %v", err)
	}
}

func channelTestConfig(repository, localDir string) *config.ChannelConfig {
	return &config.ChannelConfig{
		Enabled:    true,
		Repository: repository,
		Branch:     "master",
		LocalDir:   localDir,
		Auth:       config.ChannelAuthConfig{Type: "none"},
		Clone: config.ChannelCloneConfig{
			Depth:        1,
			SingleBranch: true,
			Timeout:      time.Minute,
		},
	}
}
