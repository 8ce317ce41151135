package cli

import (
	"fmt"
	"strings"
)

// OutputFormat names a rendering for command results.
type OutputFormat string

const (
	// FormatText is the human-readable default.
	FormatText OutputFormat = "text"
	// FormatJSON renders machine-readable JSON.
	FormatJSON OutputFormat = "json"
	// FormatCSV renders one record per line for spreadsheet import.
	FormatCSV OutputFormat = "csv"
)

// ParseFormat validates a --format flag value against the formats a
// command supports. An empty value selects text output; an unsupported
// value is an error rather than a silent fallback, so a typo in a
// script fails loudly instead of switching the output shape.
func ParseFormat(value string, supported ...OutputFormat) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(value)))
	if format == "" {
		return FormatText, nil
	}

	for _, s := range supported {
		if format == s {
			return format, nil
		}
	}

	names := make([]string, len(supported))
	for i, s := range supported {
		names[i] = string(s)
	}
	return "", fmt.Errorf("unsupported format %q (supported: %s)", value, strings.Join(names, ", "))
}
