package catalog

import (
	"fmt"
	"sort"
)

// Role describes a single entry in the platform role catalog.
// A role bundles everything needed to turn a bare machine into a
// particular kind of server: the upstream module paths it imports,
// its own option definitions, and optionally a pinned module snapshot.
type Role struct {
	// Name is the identifier operators list in the active-role list.
	// Example: "postgresql14", "webgateway", "kubernetes-master".
	Name string `yaml:"name"`

	// Description is a one-line summary shown by `caldera roles list`.
	Description string `yaml:"description"`

	// Modules lists the upstream module paths imported when the role
	// is enabled. Paths are relative to the module tree root, without
	// the .yaml extension (e.g. "services/postgresql").
	Modules []string `yaml:"modules"`

	// Snapshot pins the role's module imports to an immutable,
	// version-tagged snapshot instead of the current upstream tree.
	// Empty means the role tracks the current tree.
	Snapshot string `yaml:"snapshot,omitempty"`

	// Options carries the role's own option definitions, keyed by
	// dotted option path. These sit at the role precedence tier:
	// above upstream module defaults, below operator overrides.
	Options map[string]any `yaml:"options,omitempty"`
}

// Catalog is the static, versioned set of roles known to the platform.
// It is constructed once at startup and never mutated afterwards; all
// consumers share it by reference and treat it as read-only.
type Catalog struct {
	version string
	roles   map[string]Role
	names   []string
}

// New builds a catalog from a role list. Role names must be unique;
// a duplicate name is a configuration defect and returns an error.
func New(version string, roles []Role) (*Catalog, error) {
	c := &Catalog{
		version: version,
		roles:   make(map[string]Role, len(roles)),
	}
	for _, role := range roles {
		if role.Name == "" {
			return nil, fmt.Errorf("catalog role with empty name")
		}
		if _, dup := c.roles[role.Name]; dup {
			return nil, fmt.Errorf("duplicate catalog role %q", role.Name)
		}
		c.roles[role.Name] = role
		c.names = append(c.names, role.Name)
	}
	sort.Strings(c.names)
	return c, nil
}

// Version returns the catalog release identifier.
func (c *Catalog) Version() string {
	return c.version
}

// Role looks up a role by name.
func (c *Catalog) Role(name string) (Role, bool) {
	role, ok := c.roles[name]
	return role, ok
}

// Has reports whether the catalog knows a role by this name.
func (c *Catalog) Has(name string) bool {
	_, ok := c.roles[name]
	return ok
}

// Names returns all catalog role names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of roles in the catalog.
func (c *Catalog) Len() int {
	return len(c.roles)
}

// WithRoles returns a new catalog with the given roles layered on top
// of the receiver. An overlay role with a name already in the catalog
// replaces that entry wholesale; new names are added. The receiver is
// not modified.
func (c *Catalog) WithRoles(version string, overlay []Role) (*Catalog, error) {
	merged := make([]Role, 0, len(c.roles)+len(overlay))
	replaced := make(map[string]bool, len(overlay))
	for _, role := range overlay {
		replaced[role.Name] = true
	}
	for _, name := range c.names {
		if !replaced[name] {
			merged = append(merged, c.roles[name])
		}
	}
	merged = append(merged, overlay...)
	if version == "" {
		version = c.version
	}
	return New(version, merged)
}
