// Package query provides validation and defaulting for build journal queries.
//
// # Query Validation
//
// The validator ensures query parameters are valid before execution:
//
//   - Limit >= 0 and <= MaxLimit
//   - Offset >= 0
//   - Sort field is valid (started_at, finished_at, recorded_at,
//     option_count, duration)
//   - Sort order is valid (asc, desc)
//   - Time range is valid (start <= end)
//   - Option count thresholds are valid (min <= max)
//   - Status is valid (success, error, check)
//
// # Basic Usage
//
//	// Create query
//	q := &journal.Query{
//	    StartTime: &startTime,
//	    EndTime:   &endTime,
//	    Machine:   "web01",
//	    Status:    "error",
//	    Limit:     100,
//	    SortBy:    "started_at",
//	    SortOrder: "desc",
//	}
//
//	// Validate query
//	if err := query.Validate(q); err != nil {
//	    log.Fatal(err)
//	}
//	query.ApplyDefaults(q)
//
//	// Execute query
//	records, err := store.Query(ctx, q)
//	if err != nil {
//	    log.Fatal(err)
//	}
package query
