// Package compat implements the option compatibility shim: a static
// table mapping dotted option paths to their lifecycle state (active,
// renamed, removed) that every option reference passes through during
// a configuration build.
//
// Renamed paths are rewritten transparently, following chains, and the
// rewrite is reported so callers can log a deprecation warning; the
// build continues. Removed paths are fatal: resolution returns a
// *RemovedOptionError whose message carries the migration guidance
// verbatim, and the build stops before anything is applied.
//
//	shim := compat.NewShim(compat.Builtin())
//
//	res, err := shim.Resolve("basalt.roles.statshost.enable")
//	// res.Path == "basalt.services.prometheus.enable"
//	// res.Renames holds one step per rewrite for warning output
//
//	_, err = shim.Resolve("basalt.roles.mysql.rootPassword")
//	// err is a *compat.RemovedOptionError; err.Message tells the
//	// operator how to migrate
//
// The table never changes during a build. This indirection lets the
// option schema evolve between releases without breaking machines that
// still carry configuration written against the old names.
package compat
