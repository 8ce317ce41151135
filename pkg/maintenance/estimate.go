package maintenance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Estimate is the expected duration of a maintenance request. Operators
// provide it when filing a request so scheduling can size the slot.
//
// Estimates parse from Go duration strings ("30m", "1h30m"), from bare
// integers (seconds), and from space-separated combinations ("1h 30m").
type Estimate time.Duration

// ParseEstimate parses a duration specification into an Estimate.
func ParseEstimate(spec string) (Estimate, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, fmt.Errorf("estimate cannot be empty")
	}

	var total time.Duration
	for _, part := range strings.Fields(spec) {
		// Bare integers count as seconds
		if secs, err := strconv.Atoi(part); err == nil {
			total += time.Duration(secs) * time.Second
			continue
		}

		d, err := time.ParseDuration(part)
		if err != nil {
			return 0, fmt.Errorf("invalid estimate %q: %w", spec, err)
		}
		total += d
	}

	if total <= 0 {
		return 0, fmt.Errorf("estimate must be positive, got %q", spec)
	}

	return Estimate(total), nil
}

// Duration returns the estimate as a time.Duration.
func (e Estimate) Duration() time.Duration {
	return time.Duration(e)
}

// String renders the estimate in Go duration notation.
func (e Estimate) String() string {
	return time.Duration(e).String()
}

// MarshalYAML renders the estimate as a duration string so spooled
// request files stay readable.
func (e Estimate) MarshalYAML() (interface{}, error) {
	return e.String(), nil
}

// UnmarshalYAML parses the estimate from a duration string or an
// integer second count.
func (e *Estimate) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseEstimate(value.Value)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
