package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ManifestFileName is the manifest file inside a snapshot directory.
	ManifestFileName = "snapshot.yaml"

	// ModulesDirName is the module tree subdirectory inside a snapshot.
	ModulesDirName = "modules"
)

// Manifest describes an immutable module snapshot. Snapshots are never
// rewritten in place; publishing a new state means fetching a new
// snapshot under a new id.
type Manifest struct {
	// ID is the snapshot identifier roles pin (e.g. "k3s-1.27").
	ID string `yaml:"id"`

	// Release is the upstream release the snapshot was taken from.
	Release string `yaml:"release,omitempty"`

	// Source is the origin the snapshot was fetched from, typically a
	// git URL.
	Source string `yaml:"source,omitempty"`

	// Commit is the source commit the snapshot was taken at.
	Commit string `yaml:"commit,omitempty"`

	// FrozenAt is when the snapshot was created.
	FrozenAt time.Time `yaml:"frozen_at,omitempty"`
}

// Snapshot is an opened snapshot: a manifest plus its module tree.
type Snapshot struct {
	// Manifest is the parsed snapshot manifest.
	Manifest Manifest

	// Dir is the snapshot root directory.
	Dir string
}

// OpenSnapshot opens the snapshot with the given id under dir. The
// manifest must parse and its id must match the directory name.
func OpenSnapshot(dir, id string) (*Snapshot, error) {
	if id == "" {
		return nil, fmt.Errorf("empty snapshot id")
	}
	root := filepath.Join(dir, id)
	data, err := os.ReadFile(filepath.Join(root, ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot manifest: %w", err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot manifest: %w", err)
	}
	if manifest.ID != id {
		return nil, fmt.Errorf("snapshot manifest id %q does not match directory %q", manifest.ID, id)
	}
	return &Snapshot{Manifest: manifest, Dir: root}, nil
}

// ModuleTree returns the root of the snapshot's module tree.
func (s *Snapshot) ModuleTree() string {
	return filepath.Join(s.Dir, ModulesDirName)
}

// WriteManifest writes a snapshot manifest into dir.
func WriteManifest(dir string, m Manifest) error {
	if m.ID == "" {
		return fmt.Errorf("snapshot manifest has no id")
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ManifestFileName), data, 0o644)
}

// ListSnapshots returns the manifests of all snapshots under dir, sorted
// by id. Entries without a readable, consistent manifest are skipped. A
// missing directory yields an empty list.
func ListSnapshots(dir string) ([]Manifest, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var manifests []Manifest
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		snap, err := OpenSnapshot(dir, entry.Name())
		if err != nil {
			continue
		}
		manifests = append(manifests, snap.Manifest)
	}
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].ID < manifests[j].ID
	})
	return manifests, nil
}
