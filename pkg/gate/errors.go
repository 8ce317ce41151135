package gate

import (
	"fmt"
	"strings"
	"time"
)

// PreconditionTimeoutError reports a gate whose artifacts did not all
// appear within the configured timeout.
type PreconditionTimeoutError struct {
	// Dir is the gated directory.
	Dir string

	// Missing lists the artifact base names still absent when the
	// timeout elapsed.
	Missing []string

	// Waited is how long the gate polled before giving up.
	Waited time.Duration
}

// Error implements the error interface.
func (e *PreconditionTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for certificate artifacts in %s: missing %s",
		e.Waited.Round(time.Millisecond), e.Dir, strings.Join(e.Missing, ", "))
}
