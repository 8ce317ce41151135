package modules

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source attributes a resolved value to the definition that produced it.
type Source struct {
	// Tier is the precedence layer the winning definition came from.
	Tier Tier

	// Role is the role that introduced the definition. Empty for
	// operator overrides.
	Role string

	// Module is the module path for upstream definitions.
	Module string

	// Snapshot is the pinned snapshot id for snapshot-loaded modules.
	Snapshot string

	// Override is the 1-based operator override position, zero
	// otherwise.
	Override int

	// Forced is true when the value was forced past normal merging.
	Forced bool

	// Concatenated is true when the value is a list combined from all
	// contributing tiers rather than a single winning definition. Tier
	// and the origin fields then describe the highest contributor.
	Concatenated bool
}

// RenameEvent records a deprecated option reference that was rewritten
// during resolution.
type RenameEvent struct {
	// From is the option path as referenced.
	From string

	// To is the terminal path the reference was rewritten to.
	To string

	// Since is the release that deprecated the referenced path.
	Since string

	// Origin is where the deprecated reference appeared.
	Origin Origin
}

// Composite is the merged result of a resolution run. It is immutable:
// accessors return copies, and building a different option set means
// running a new resolution.
type Composite struct {
	catalogVersion string
	roles          []string
	values         map[string]any
	sources        map[string]Source
	renames        []RenameEvent
}

// newComposite assembles a composite from merged values. The roles slice
// is the active list in declaration order.
func newComposite(catalogVersion string, roles []string, merged map[string]mergedValue, renames []RenameEvent) *Composite {
	values := make(map[string]any, len(merged))
	sources := make(map[string]Source, len(merged))
	for path, mv := range merged {
		values[path] = mv.value
		sources[path] = mv.source
	}
	return &Composite{
		catalogVersion: catalogVersion,
		roles:          roles,
		values:         values,
		sources:        sources,
		renames:        renames,
	}
}

// CatalogVersion returns the catalog version the composite was built
// against.
func (c *Composite) CatalogVersion() string {
	return c.catalogVersion
}

// Roles returns the active roles the composite was built for, in
// declaration order.
func (c *Composite) Roles() []string {
	out := make([]string, len(c.roles))
	copy(out, c.roles)
	return out
}

// Get returns the resolved value for an option path.
func (c *Composite) Get(path string) (any, bool) {
	value, ok := c.values[path]
	return value, ok
}

// Has reports whether the composite resolved a value for the path.
func (c *Composite) Has(path string) bool {
	_, ok := c.values[path]
	return ok
}

// Source returns the attribution for a resolved path.
func (c *Composite) Source(path string) (Source, bool) {
	source, ok := c.sources[path]
	return source, ok
}

// Paths returns every resolved option path in sorted order.
func (c *Composite) Paths() []string {
	paths := make([]string, 0, len(c.values))
	for path := range c.values {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of resolved option paths.
func (c *Composite) Len() int {
	return len(c.values)
}

// Renames returns the rename events recorded during resolution.
func (c *Composite) Renames() []RenameEvent {
	out := make([]RenameEvent, len(c.renames))
	copy(out, c.renames)
	return out
}

// Tree returns the resolved options as a nested document, splitting
// option paths on dots. The merge guarantees no path is both a value and
// a namespace, so the conversion cannot clobber anything.
func (c *Composite) Tree() map[string]any {
	tree := make(map[string]any)
	for _, path := range c.Paths() {
		insertPath(tree, path, c.values[path])
	}
	return tree
}

// RenderYAML encodes the nested option document as YAML.
func (c *Composite) RenderYAML() ([]byte, error) {
	data, err := yaml.Marshal(c.Tree())
	if err != nil {
		return nil, fmt.Errorf("failed to encode composite as YAML: %w", err)
	}
	return data, nil
}

// RenderJSON encodes the nested option document as indented JSON.
func (c *Composite) RenderJSON() ([]byte, error) {
	data, err := json.MarshalIndent(c.Tree(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode composite as JSON: %w", err)
	}
	return data, nil
}

// insertPath places a value into the nested document, creating
// intermediate maps as needed.
func insertPath(tree map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	node := tree
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value
}
