// Package modules resolves the module imports of enabled roles into a
// single composite option set.
//
// Each enabled role names module definition files under a module tree.
// The resolver loads them, applies the compatibility shim to every
// referenced option path, and merges three precedence tiers into an
// immutable Composite:
//
//   - upstream: module defaults from the current tree or a pinned
//     snapshot (lowest)
//   - role: definitions the roles declare themselves
//   - operator: local overrides, optionally forced (highest)
//
// Scalars take the highest-precedence definition; lists from all tiers
// are concatenated unless a forced override replaces them. The merge is
// a pure function over the collected definitions, so the result does not
// depend on module import order.
//
// # Usage
//
//	set := registry.Resolve([]string{"postgresql14", "webgateway"})
//	resolver, err := modules.NewResolver(cat, shim, &modules.Config{
//		ModuleDir:   "/var/lib/basalt/modules",
//		SnapshotDir: "/var/lib/basalt/snapshots",
//	}, logger)
//	if err != nil {
//		return err
//	}
//
//	composite, err := resolver.Resolve(ctx, set, overrides)
//	if err != nil {
//		return err
//	}
//	value, ok := composite.Get("basalt.services.postgresql.port")
//
// Roles may pin a ModuleSnapshot: an immutable, version-tagged bundle
// holding its own module tree. Pinned roles keep building against the
// frozen tree while the upstream tree moves on.
package modules
