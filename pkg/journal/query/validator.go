package query

import (
	"fmt"

	"caldera-hq/basalt/pkg/journal"
)

const (
	// DefaultLimit is the default number of records to return if not specified.
	DefaultLimit = 100

	// MaxLimit is the maximum number of records that can be returned in a single query.
	MaxLimit = 10000
)

// ValidSortFields contains the fields that can be used for sorting.
var ValidSortFields = map[string]bool{
	"started_at":   true,
	"finished_at":  true,
	"recorded_at":  true,
	"option_count": true,
	"duration":     true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// Validate validates a query and returns an error if any parameters are invalid.
func Validate(q *journal.Query) error {
	// Validate limit
	if q.Limit < 0 {
		return journal.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return journal.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}

	// Validate offset
	if q.Offset < 0 {
		return journal.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	// Validate sort field
	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return journal.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}

	// Validate sort order
	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return journal.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	// Validate time range
	if q.StartTime != nil && q.EndTime != nil {
		if q.StartTime.After(*q.EndTime) {
			return journal.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
		}
	}

	// Validate option count thresholds
	if q.MinOptions != nil && q.MaxOptions != nil {
		if *q.MinOptions > *q.MaxOptions {
			return journal.NewQueryError(q, fmt.Errorf("min_options must be <= max_options"))
		}
	}

	// Validate status
	if q.Status != "" {
		validStatuses := map[string]bool{
			"success": true,
			"error":   true,
			"check":   true,
		}
		if !validStatuses[q.Status] {
			return journal.NewQueryError(q, fmt.Errorf("invalid status: %s (must be 'success', 'error', or 'check')", q.Status))
		}
	}

	return nil
}

// ApplyDefaults applies default values to a query.
func ApplyDefaults(q *journal.Query) {
	// Apply default limit
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}

	// Apply default sort field
	if q.SortBy == "" {
		q.SortBy = "started_at"
	}

	// Apply default sort order
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
