package journal

import (
	"context"
	"io"
	"time"
)

// BuildRecord represents the audit trail for a single configuration build.
// It captures the inputs, the resolved result, compatibility rewrites, and a
// cryptographic hash of the rendered output for later verification.
type BuildRecord struct {
	// Identity
	ID      string `json:"id"`      // UUID v4
	Machine string `json:"machine"` // Machine the build ran for

	// Timestamps
	StartedAt  time.Time `json:"started_at"`  // When the build started
	FinishedAt time.Time `json:"finished_at"` // When the build finished
	RecordedAt time.Time `json:"recorded_at"` // When the record was written

	// Build inputs
	Environment    string   `json:"environment"`     // Deployment environment
	CatalogVersion string   `json:"catalog_version"` // Role catalog version
	Roles          []string `json:"roles"`           // Active roles in declaration order

	// Build result
	Status      string `json:"status"`       // "success", "error", "check"
	OptionCount int    `json:"option_count"` // Resolved option paths
	ModuleCount int    `json:"module_count"` // Distinct modules that contributed
	OutputHash  string `json:"output_hash"`  // SHA-256 of rendered output
	OutputPath  string `json:"output_path"`  // Where the output was written

	// Compatibility rewrites applied during resolution
	Renames []RenameRecord `json:"renames"`

	// Error info
	Error     string `json:"error"`      // Error message if the build failed
	ErrorType string `json:"error_type"` // "unknown_role", "module_load", "merge_conflict", "removed_option"

	// Timing
	Duration time.Duration `json:"duration"` // Wall-clock build time
}

// RenameRecord captures one deprecated option reference that the
// compatibility shim rewrote during the build.
type RenameRecord struct {
	From  string `json:"from"`  // Option path as referenced
	To    string `json:"to"`    // Terminal path after rewriting
	Since string `json:"since"` // Release that deprecated the path
}

// Query defines filter parameters for querying build records.
type Query struct {
	// Time range
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	Machine     string `json:"machine,omitempty"`     // Filter by machine name
	Environment string `json:"environment,omitempty"` // Filter by environment
	Role        string `json:"role,omitempty"`        // Filter by active role
	Status      string `json:"status,omitempty"`      // "success", "error", "check"

	// Thresholds
	MinOptions *int `json:"min_options,omitempty"` // Minimum resolved options
	MaxOptions *int `json:"max_options,omitempty"` // Maximum resolved options

	// Pagination
	Limit  int `json:"limit,omitempty"`  // Max records to return
	Offset int `json:"offset,omitempty"` // Skip N records

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "started_at", "option_count", "duration"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for journal storage backends.
// Implementations must be thread-safe and support concurrent access.
type Storage interface {
	// Store persists a build record.
	// Returns an error if the record cannot be written.
	Store(ctx context.Context, record *BuildRecord) error

	// Query retrieves build records matching the query filters.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*BuildRecord, error)

	// QueryStream returns a channel of build records for memory-efficient streaming.
	// Use this for large result sets to avoid loading everything in memory.
	//
	// Returns:
	//   - recordsCh: Channel of build records (buffered)
	//   - errCh: Channel for errors (buffered, max 1 error)
	//   - error: Immediate error (e.g., invalid query)
	//
	// The channels will be closed when the query completes or errors.
	// Callers should read from both channels until they are closed.
	QueryStream(ctx context.Context, query *Query) (<-chan *BuildRecord, <-chan error, error)

	// Count returns the number of build records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes build records matching the query filters.
	// Returns the number of records deleted.
	// Used for retention enforcement.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}

// Exporter defines the interface for exporting build records to various formats.
type Exporter interface {
	// Export writes build records to the provided writer in the exporter's format.
	// Returns an error if the export fails.
	Export(ctx context.Context, records []*BuildRecord, w io.Writer) error
}
