// Package catalog defines the static role catalog and the registry that
// resolves an operator's active-role list against it.
//
// A role is a named, independently enable-able bundle of configuration:
// it imports upstream module paths, contributes its own option
// definitions, and may pin its imports to an immutable module snapshot.
// The catalog is built once at startup (builtin table plus an optional
// overlay file) and shared read-only by reference.
//
// # Resolving the active-role list
//
//	cat, err := catalog.Load(cfg.Platform.CatalogPath)
//	if err != nil {
//	    return err
//	}
//	registry := catalog.NewRegistry(cat)
//	set := registry.Resolve([]string{"postgresql14", "webgateway"})
//
//	set.Enabled("postgresql14") // true
//	set.Enabled("postgresql13") // false
//
// Resolution is pure: it never mutates the catalog, duplicates in the
// input collapse, and list order does not change which roles are
// enabled. Names that are not in the catalog are carried through as
// enabled; the import resolver rejects them with an UnknownRoleError
// so that typos surface as build failures rather than silent no-ops.
package catalog
