package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"caldera-hq/basalt/pkg/journal"
)

// CSVExporter exports build records to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes build records to the provided writer in CSV format.
// The CSV format flattens nested structures (the roles list becomes a
// space-separated string, renames become a JSON string).
func (e *CSVExporter) Export(ctx context.Context, records []*journal.BuildRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	// Write header row if configured
	if e.IncludeHeader {
		header := e.getHeaderRow()
		if err := writer.Write(header); err != nil {
			return journal.NewExportError("csv", len(records), err)
		}
	}

	// Write data rows
	for _, record := range records {
		row, err := e.recordToRow(record)
		if err != nil {
			return journal.NewExportError("csv", len(records), err)
		}
		if err := writer.Write(row); err != nil {
			return journal.NewExportError("csv", len(records), err)
		}
	}

	return nil
}

// ExportStream exports build records from a channel to CSV format.
// This is memory-efficient for large result sets as it streams records
// one at a time instead of loading all records in memory.
//
// The CSV writer flushes periodically to provide progress feedback
// for long-running exports.
func (e *CSVExporter) ExportStream(ctx context.Context, recordsCh <-chan *journal.BuildRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	// Write header if configured
	if e.IncludeHeader {
		header := e.getHeaderRow()
		if err := writer.Write(header); err != nil {
			return journal.NewExportError("csv", 0, err)
		}
	}

	recordCount := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-recordsCh:
			if !ok {
				// Channel closed - flush and return
				writer.Flush()
				if err := writer.Error(); err != nil {
					return journal.NewExportError("csv", recordCount, err)
				}
				return nil
			}

			// Convert record to CSV row
			row, err := e.recordToRow(record)
			if err != nil {
				return journal.NewExportError("csv", recordCount, err)
			}

			// Write row
			if err := writer.Write(row); err != nil {
				return journal.NewExportError("csv", recordCount, err)
			}

			recordCount++

			// Flush periodically (every 100 records)
			// This provides progress feedback for long exports
			if recordCount%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return journal.NewExportError("csv", recordCount, err)
				}
			}
		}
	}
}

// getHeaderRow returns the CSV header row.
func (e *CSVExporter) getHeaderRow() []string {
	return []string{
		"id", "machine",
		"started_at", "finished_at", "recorded_at",
		"environment", "catalog_version", "roles",
		"status", "option_count", "module_count", "output_hash", "output_path",
		"renames",
		"error", "error_type",
		"duration_ms",
	}
}

// recordToRow converts a build record to a CSV row.
func (e *CSVExporter) recordToRow(record *journal.BuildRecord) ([]string, error) {
	// Helper function to format timestamps
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	// Helper function to format JSON fields
	formatJSON := func(v interface{}) string {
		data, _ := json.Marshal(v)
		return string(data)
	}

	row := []string{
		record.ID,
		record.Machine,
		formatTime(record.StartedAt),
		formatTime(record.FinishedAt),
		formatTime(record.RecordedAt),
		record.Environment,
		record.CatalogVersion,
		strings.Join(record.Roles, " "),
		record.Status,
		fmt.Sprintf("%d", record.OptionCount),
		fmt.Sprintf("%d", record.ModuleCount),
		record.OutputHash,
		record.OutputPath,
		formatJSON(record.Renames),
		record.Error,
		record.ErrorType,
		fmt.Sprintf("%d", record.Duration.Milliseconds()),
	}

	return row, nil
}
