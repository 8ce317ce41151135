package compat

import "fmt"

// RemovedOptionError is returned when a configuration references an
// option that has been retired. It is fatal to the configuration
// build: no partial application happens. The Message text is shown to
// the operator verbatim and must carry the migration guidance.
type RemovedOptionError struct {
	// Path is the option path exactly as referenced.
	Path string

	// Terminal is the removed path the reference resolved to. It
	// differs from Path when a rename chain ends at a removed option.
	Terminal string

	// Message is the remediation text from the compatibility table.
	Message string

	// Since names the release that removed the option.
	Since string
}

// Error implements the error interface.
func (e *RemovedOptionError) Error() string {
	if e.Terminal != "" && e.Terminal != e.Path {
		return fmt.Sprintf("option %q (now %q) has been removed: %s", e.Path, e.Terminal, e.Message)
	}
	return fmt.Sprintf("option %q has been removed: %s", e.Path, e.Message)
}
