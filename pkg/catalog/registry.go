package catalog

import "sort"

// EnableSet maps every role name known to a configuration build to its
// enabled state. It is the seed for configuration merging: membership
// is decided here, while existence validation of unknown names is the
// import resolver's job.
type EnableSet struct {
	enabled map[string]bool
	active  []string
}

// Enabled reports whether the named role is enabled. Names absent from
// the set are reported as disabled.
func (s EnableSet) Enabled(name string) bool {
	return s.enabled[name]
}

// Active returns the enabled role names in declaration order, with
// duplicates collapsed to their first occurrence. This order defines
// role precedence within the role tier during merging.
func (s EnableSet) Active() []string {
	out := make([]string, len(s.active))
	copy(out, s.active)
	return out
}

// Names returns every name in the set (catalog roles plus any unknown
// active names) in sorted order.
func (s EnableSet) Names() []string {
	out := make([]string, 0, len(s.enabled))
	for name := range s.enabled {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of names tracked by the set.
func (s EnableSet) Len() int {
	return len(s.enabled)
}

// Registry turns an operator-supplied active-role list into an
// EnableSet over a static catalog. Resolution is a pure function of
// the list and the catalog: no side effects, and the activation order
// never affects which roles end up enabled.
type Registry struct {
	catalog *Catalog
}

// NewRegistry creates a registry over the given catalog.
func NewRegistry(c *Catalog) *Registry {
	return &Registry{catalog: c}
}

// Catalog returns the catalog the registry resolves against.
func (r *Registry) Catalog() *Catalog {
	return r.catalog
}

// Resolve maps every catalog role to its enabled state: true when the
// name appears in the active list, false otherwise. Duplicate names in
// the list collapse to one entry. Names not present in the catalog are
// carried through as enabled so the import resolver can reject them
// with a proper error instead of silently dropping them.
func (r *Registry) Resolve(active []string) EnableSet {
	set := EnableSet{
		enabled: make(map[string]bool, r.catalog.Len()+len(active)),
	}
	for _, name := range r.catalog.names {
		set.enabled[name] = false
	}
	for _, name := range active {
		if set.enabled[name] {
			continue // duplicate
		}
		set.enabled[name] = true
		set.active = append(set.active, name)
	}
	return set
}
