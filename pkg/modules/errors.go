package modules

import (
	"errors"
	"fmt"

	"caldera-hq/basalt/pkg/compat"
)

// UnknownRoleError indicates that an enabled role name does not exist in
// the role catalog. The build fails before any module is loaded.
type UnknownRoleError struct {
	// Role is the unknown role name as given in the active list.
	Role string
}

// Error implements the error interface.
func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown role %q: not present in the role catalog", e.Role)
}

// ModuleLoadError indicates that a module path referenced by a role could
// not be located or parsed, in either the upstream tree or a pinned
// snapshot.
type ModuleLoadError struct {
	// Role is the role whose import triggered the load.
	Role string

	// Module is the module path that failed to load. Empty when the
	// pinned snapshot itself could not be opened.
	Module string

	// Snapshot is the pinned snapshot id, empty when loading upstream.
	Snapshot string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ModuleLoadError) Error() string {
	switch {
	case e.Module == "" && e.Snapshot != "":
		return fmt.Sprintf("failed to open snapshot %q pinned by role %q: %v", e.Snapshot, e.Role, e.Cause)
	case e.Snapshot != "":
		return fmt.Sprintf("failed to load module %q for role %q from snapshot %q: %v", e.Module, e.Role, e.Snapshot, e.Cause)
	default:
		return fmt.Sprintf("failed to load module %q for role %q: %v", e.Module, e.Role, e.Cause)
	}
}

// Unwrap returns the underlying error.
func (e *ModuleLoadError) Unwrap() error {
	return e.Cause
}

// MergeConflictError indicates that the definitions collected for an
// option path cannot be combined into a single value.
type MergeConflictError struct {
	// Path is the conflicting option path.
	Path string

	// Reason describes the conflict.
	Reason string
}

// Error implements the error interface.
func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("conflicting definitions for option %q: %s", e.Path, e.Reason)
}

// IsConfigurationError reports whether err belongs to the class of
// configuration errors that fail a build wholesale: unknown roles,
// module load failures, merge conflicts and removed-option references.
func IsConfigurationError(err error) bool {
	var unknownRole *UnknownRoleError
	var moduleLoad *ModuleLoadError
	var mergeConflict *MergeConflictError
	var removed *compat.RemovedOptionError

	return errors.As(err, &unknownRole) ||
		errors.As(err, &moduleLoad) ||
		errors.As(err, &mergeConflict) ||
		errors.As(err, &removed)
}
