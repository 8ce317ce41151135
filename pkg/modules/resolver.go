package modules

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"caldera-hq/basalt/pkg/catalog"
	"caldera-hq/basalt/pkg/compat"
)

// Config contains configuration for the Resolver.
type Config struct {
	// ModuleDir is the upstream module tree root.
	ModuleDir string

	// SnapshotDir is the directory holding pinned module snapshots.
	SnapshotDir string
}

// Resolver loads module definitions for enabled roles and merges them
// with role and operator definitions into a Composite.
type Resolver struct {
	catalog *catalog.Catalog
	shim    *compat.Shim
	config  *Config
	logger  *slog.Logger
}

// NewResolver creates a resolver over the given catalog and
// compatibility shim. A nil shim disables compatibility rewriting.
func NewResolver(cat *catalog.Catalog, shim *compat.Shim, cfg *Config, logger *slog.Logger) (*Resolver, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog must not be nil")
	}
	if cfg == nil || cfg.ModuleDir == "" {
		return nil, fmt.Errorf("module directory must be configured")
	}
	if shim == nil {
		shim = compat.NewShim(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		catalog: cat,
		shim:    shim,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Override is an operator-supplied definition from the local
// configuration. Overrides sit in the highest tier; a forced override
// additionally replaces list concatenation.
type Override struct {
	// Option is the dotted option path.
	Option string `yaml:"option"`

	// Value is the value to apply.
	Value any `yaml:"value"`

	// Force replaces the merged value outright instead of taking part
	// in normal precedence.
	Force bool `yaml:"force,omitempty"`
}

// overridesFile is the on-disk shape of an operator override file.
type overridesFile struct {
	Overrides []Override `yaml:"overrides"`
}

// LoadOverrides reads operator overrides from a YAML file. A missing
// file yields no overrides.
func LoadOverrides(path string) ([]Override, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read override file %s: %w", path, err)
	}

	var file overridesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse override file %s: %w", path, err)
	}
	for i, override := range file.Overrides {
		if override.Option == "" {
			return nil, fmt.Errorf("override #%d in %s has no option path", i+1, path)
		}
	}
	return file.Overrides, nil
}

// Resolve builds the composite option set for the given enable set and
// operator overrides.
//
// Each enabled role contributes its module defaults (upstream tier) and
// its own declarations (role tier); overrides form the operator tier.
// Every referenced option path passes through the compatibility shim
// first: a removed path aborts the build, a renamed path is rewritten
// and recorded. Modules are loaded once per tree even when several
// roles import them; attribution names the first importing role. A role
// that pins a snapshot loads all of its module paths from the snapshot
// tree instead of the upstream tree.
func (r *Resolver) Resolve(ctx context.Context, set catalog.EnableSet, overrides []Override) (*Composite, error) {
	collector := newCollector(r.shim)
	loaded := make(map[string]bool)

	for rank, name := range set.Active() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		role, ok := r.catalog.Role(name)
		if !ok {
			return nil, &UnknownRoleError{Role: name}
		}

		tree := r.config.ModuleDir
		snapshotID := ""
		if role.Snapshot != "" {
			snap, err := OpenSnapshot(r.config.SnapshotDir, role.Snapshot)
			if err != nil {
				return nil, &ModuleLoadError{Role: name, Snapshot: role.Snapshot, Cause: err}
			}
			tree = snap.ModuleTree()
			snapshotID = role.Snapshot
		}

		for _, module := range role.Modules {
			key := tree + "\x00" + module
			if loaded[key] {
				continue
			}
			loaded[key] = true

			options, err := ParseModuleFile(filepath.Join(tree, module+".yaml"))
			if err != nil {
				return nil, &ModuleLoadError{Role: name, Module: module, Snapshot: snapshotID, Cause: err}
			}
			origin := Origin{Role: name, Module: module, Snapshot: snapshotID}
			if err := collector.add(options, TierUpstream, rank, origin); err != nil {
				return nil, err
			}
		}

		if len(role.Options) > 0 {
			flat := make(map[string]any)
			if err := flattenOptions("", role.Options, flat); err != nil {
				return nil, fmt.Errorf("invalid options for role %q: %w", name, err)
			}
			if err := collector.add(flat, TierRole, rank, Origin{Role: name}); err != nil {
				return nil, err
			}
		}
	}

	for i, override := range overrides {
		if override.Option == "" {
			return nil, fmt.Errorf("override #%d has no option path", i+1)
		}
		origin := Origin{Override: i + 1}
		if err := collector.addOne(override.Option, override.Value, TierOperator, i, override.Force, origin); err != nil {
			return nil, err
		}
	}

	for _, event := range collector.renames {
		r.logger.Warn("rewrote deprecated option reference",
			"from", event.From,
			"to", event.To,
			"since", event.Since,
			"source", event.Origin.String(),
		)
	}

	merged, err := mergeDefinitions(collector.definitions)
	if err != nil {
		return nil, err
	}

	return newComposite(r.catalog.Version(), set.Active(), merged, collector.renames), nil
}

// collector accumulates definitions in a deterministic order, rewriting
// every referenced path through the compatibility shim.
type collector struct {
	shim        *compat.Shim
	definitions []Definition
	renames     []RenameEvent
}

func newCollector(shim *compat.Shim) *collector {
	return &collector{shim: shim}
}

// add records every option in the flat map, in sorted path order.
func (c *collector) add(options map[string]any, tier Tier, rank int, origin Origin) error {
	paths := make([]string, 0, len(options))
	for path := range options {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := c.addOne(path, options[path], tier, rank, false, origin); err != nil {
			return err
		}
	}
	return nil
}

// addOne records a single definition. A removed option aborts collection
// with the shim's error; a renamed option is rewritten and the rewrite
// recorded.
func (c *collector) addOne(path string, value any, tier Tier, rank int, force bool, origin Origin) error {
	resolution, err := c.shim.Resolve(path)
	if err != nil {
		return err
	}
	if resolution.Renamed() {
		c.renames = append(c.renames, RenameEvent{
			From:   path,
			To:     resolution.Path,
			Since:  resolution.Renames[0].Since,
			Origin: origin,
		})
	}
	c.definitions = append(c.definitions, Definition{
		Path:   resolution.Path,
		Value:  value,
		Tier:   tier,
		Rank:   rank,
		Force:  force,
		Origin: origin,
	})
	return nil
}
