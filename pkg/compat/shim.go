package compat

import "fmt"

// Lifecycle is the state of an option path in the compatibility table.
type Lifecycle string

const (
	// LifecycleActive marks a path that resolves to itself. Paths absent
	// from the table are implicitly active.
	LifecycleActive Lifecycle = "active"

	// LifecycleRenamed marks a path that is transparently rewritten to
	// its successor. References keep working but emit a deprecation
	// warning.
	LifecycleRenamed Lifecycle = "renamed"

	// LifecycleRemoved marks a retired path. Any reference fails the
	// configuration build with the stored remediation message.
	LifecycleRemoved Lifecycle = "removed"
)

// maxRenameChain bounds rename-chain traversal. A chain longer than
// this indicates a defective table, not a legitimate migration path.
const maxRenameChain = 16

// Entry describes the lifecycle of a single option path.
type Entry struct {
	// Path is the dotted option path the entry applies to.
	Path string

	// State is the path's lifecycle state.
	State Lifecycle

	// Target is the successor path. Set only for renamed entries.
	Target string

	// Message is the remediation text shown verbatim to the operator.
	// Set only for removed entries.
	Message string

	// Since names the platform release that renamed or removed the path.
	Since string
}

// Table is an immutable set of lifecycle entries keyed by option path.
// It is built once per process and consulted on every option resolution
// during a configuration build.
type Table struct {
	entries map[string]Entry
}

// NewTable validates and indexes a list of entries. Renamed entries
// need a target distinct from their own path, removed entries need a
// remediation message, and paths must be unique.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Path == "" {
			return nil, fmt.Errorf("compat entry with empty path")
		}
		if _, dup := t.entries[e.Path]; dup {
			return nil, fmt.Errorf("duplicate compat entry for %q", e.Path)
		}
		switch e.State {
		case LifecycleRenamed:
			if e.Target == "" {
				return nil, fmt.Errorf("renamed entry %q has no target", e.Path)
			}
			if e.Target == e.Path {
				return nil, fmt.Errorf("renamed entry %q targets itself", e.Path)
			}
		case LifecycleRemoved:
			if e.Message == "" {
				return nil, fmt.Errorf("removed entry %q has no remediation message", e.Path)
			}
		case LifecycleActive:
			// Listing an active entry is legal but pointless; accept it
			// so generated tables round-trip.
		default:
			return nil, fmt.Errorf("compat entry %q has unknown state %q", e.Path, e.State)
		}
		t.entries[e.Path] = e
	}
	return t, nil
}

// Lookup returns the entry for a path, if any.
func (t *Table) Lookup(path string) (Entry, bool) {
	e, ok := t.entries[path]
	return e, ok
}

// Len returns the number of entries in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Rename records one rewrite step applied during resolution.
type Rename struct {
	// From is the path as referenced.
	From string

	// To is the path it was rewritten to.
	To string

	// Since names the release that introduced the rename.
	Since string
}

// Resolution is the outcome of resolving an option path through the
// shim: the terminal path plus any rewrite steps taken to reach it.
// An empty Renames slice means the reference was already current.
type Resolution struct {
	Path    string
	Renames []Rename
}

// Renamed reports whether the resolution rewrote the referenced path.
func (r Resolution) Renamed() bool {
	return len(r.Renames) > 0
}

// Shim resolves option references against a lifecycle table. Renamed
// paths are rewritten transparently, chains included; removed paths
// fail with the stored remediation message. The shim holds no mutable
// state and is safe for concurrent use.
type Shim struct {
	table *Table
}

// NewShim creates a shim over the given table. A nil table resolves
// every path to itself.
func NewShim(table *Table) *Shim {
	if table == nil {
		table = &Table{entries: map[string]Entry{}}
	}
	return &Shim{table: table}
}

// Table returns the lifecycle table the shim consults.
func (s *Shim) Table() *Table {
	return s.table
}

// Resolve follows the lifecycle of an option path. Active and unknown
// paths resolve to themselves. Renamed paths are rewritten step by
// step until an active path is reached; every step is reported so
// callers can surface deprecation warnings. A removed path anywhere
// along the chain returns a *RemovedOptionError carrying the
// remediation message verbatim.
func (s *Shim) Resolve(path string) (Resolution, error) {
	res := Resolution{Path: path}
	current := path

	for steps := 0; ; steps++ {
		entry, ok := s.table.entries[current]
		if !ok || entry.State == LifecycleActive {
			res.Path = current
			return res, nil
		}

		switch entry.State {
		case LifecycleRemoved:
			return Resolution{}, &RemovedOptionError{
				Path:     path,
				Terminal: current,
				Message:  entry.Message,
				Since:    entry.Since,
			}
		case LifecycleRenamed:
			if steps >= maxRenameChain {
				return Resolution{}, fmt.Errorf(
					"rename chain for option %q exceeds %d steps; compatibility table is defective",
					path, maxRenameChain)
			}
			res.Renames = append(res.Renames, Rename{
				From:  current,
				To:    entry.Target,
				Since: entry.Since,
			})
			current = entry.Target
		}
	}
}
