package modules

import "fmt"

// Tier identifies the precedence layer a definition belongs to. Higher
// tiers override lower tiers during merging.
type Tier int

const (
	// TierUpstream holds module defaults loaded from the upstream tree
	// or from a pinned snapshot.
	TierUpstream Tier = iota

	// TierRole holds definitions declared by the roles themselves.
	TierRole

	// TierOperator holds operator overrides from the local
	// configuration.
	TierOperator
)

// String returns a human-readable tier name.
func (t Tier) String() string {
	switch t {
	case TierUpstream:
		return "upstream"
	case TierRole:
		return "role"
	case TierOperator:
		return "operator"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Origin records where a definition came from. It is carried through the
// merge so diagnostics can point at the module file, role or override
// that set a value.
type Origin struct {
	// Role is the role that introduced the definition. Empty for
	// operator overrides.
	Role string

	// Module is the module path the definition was loaded from. Empty
	// for role-tier and operator-tier definitions.
	Module string

	// Snapshot is the pinned snapshot id the module was loaded from.
	// Empty when the module came from the upstream tree.
	Snapshot string

	// Override is the 1-based position in the operator override list.
	// Zero for module and role definitions.
	Override int
}

// String formats the origin for log output and error messages.
func (o Origin) String() string {
	switch {
	case o.Override > 0:
		return fmt.Sprintf("override #%d", o.Override)
	case o.Module != "" && o.Snapshot != "":
		return fmt.Sprintf("module %s (snapshot %s, role %s)", o.Module, o.Snapshot, o.Role)
	case o.Module != "":
		return fmt.Sprintf("module %s (role %s)", o.Module, o.Role)
	default:
		return fmt.Sprintf("role %s", o.Role)
	}
}

// Definition is a single option assignment collected during resolution,
// before merging. The merge never modifies a definition; it only selects
// and combines them.
type Definition struct {
	// Path is the option path after compatibility rewriting.
	Path string

	// Value is the assigned value: a scalar, a list, or nil.
	Value any

	// Tier is the precedence layer.
	Tier Tier

	// Rank orders definitions within a tier. For module and role
	// definitions it is the position of the importing role in the
	// active list; for operator overrides it is the override position.
	// Higher ranks win scalar merges within the same tier.
	Rank int

	// Force marks a definition that outranks every other definition for
	// the path, including list concatenation.
	Force bool

	// Origin records the source for attribution and diagnostics.
	Origin Origin
}
