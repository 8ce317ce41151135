package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"caldera-hq/basalt/pkg/cli"
	"caldera-hq/basalt/pkg/config"
	"caldera-hq/basalt/pkg/journal"
	"caldera-hq/basalt/pkg/journal/export"
	"caldera-hq/basalt/pkg/journal/query"
	journalstorage "caldera-hq/basalt/pkg/journal/storage"
)

var journalFlags struct {
	machine     string
	environment string
	role        string
	status      string
	timeRange   string
	limit       int
	offset      int
	format      string
	output      string
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the build journal",
	Long: `Query the build journal.

Every configuration build writes a journal record: the active roles,
the resolved option count, compatibility rewrites, and a hash of the
rendered output. The journal answers when a machine's configuration
changed, what changed it, and whether deprecated options are still in
use.

Subcommands:
  list - List build records with filters
  show - Display one build record in detail

Examples:
  # Last builds of this machine
  caldera journal list --limit 10

  # Failed builds in a time range
  caldera journal list --status error --time-range "2026-08-01T00:00:00Z/2026-08-25T00:00:00Z"

  # Export as CSV
  caldera journal list --format csv --output builds.csv`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List build records",
	Long: `List build records matching the given filters, newest first.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-08-24T00:00:00Z/2026-08-25T00:00:00Z"

Examples:
  # Builds that applied a specific role
  caldera journal list --role webgateway

  # Failed builds only
  caldera journal list --status error

  # JSON output for scripting
  caldera journal list --format json`,
	RunE: listJournal,
}

var journalShowCmd = &cobra.Command{
	Use:   "show [record-id]",
	Short: "Display one build record",
	Long: `Display a single build record in detail.

The record id may be abbreviated to a unique prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: showJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd, journalShowCmd)

	journalListCmd.Flags().StringVar(&journalFlags.machine, "machine", "", "filter by machine name")
	journalListCmd.Flags().StringVar(&journalFlags.environment, "environment", "", "filter by environment")
	journalListCmd.Flags().StringVar(&journalFlags.role, "role", "", "filter by active role")
	journalListCmd.Flags().StringVar(&journalFlags.status, "status", "", "filter by status (success, error, check)")
	journalListCmd.Flags().StringVar(&journalFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	journalListCmd.Flags().IntVar(&journalFlags.limit, "limit", 0, "max results (default from config)")
	journalListCmd.Flags().IntVar(&journalFlags.offset, "offset", 0, "pagination offset")
	journalListCmd.Flags().StringVar(&journalFlags.format, "format", "text", "output format: text, json, csv")
	journalListCmd.Flags().StringVarP(&journalFlags.output, "output", "o", "", "output file (default: stdout)")
}

// openJournal opens the configured journal storage backend.
func openJournal(cfg *config.Config) (journal.Storage, error) {
	switch cfg.Journal.Backend {
	case "sqlite", "":
		return journalstorage.NewSQLiteStorage(&journalstorage.SQLiteConfig{
			Path:         cfg.Journal.SQLite.Path,
			MaxOpenConns: cfg.Journal.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Journal.SQLite.MaxIdleConns,
			WALMode:      cfg.Journal.SQLite.WALMode,
			BusyTimeout:  cfg.Journal.SQLite.BusyTimeout,
		})
	case "memory":
		return journalstorage.NewMemoryStorage(cfg.Journal.Memory.MaxRecords), nil
	default:
		return nil, fmt.Errorf("unsupported journal backend: %s (supported: sqlite, memory)", cfg.Journal.Backend)
	}
}

func listJournal(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(journalFlags.format, cli.FormatText, cli.FormatJSON, cli.FormatCSV)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := openJournal(cfg)
	if err != nil {
		return cli.NewCommandError("journal", err)
	}
	defer store.Close()

	q := &journal.Query{
		Machine:     journalFlags.machine,
		Environment: journalFlags.environment,
		Role:        journalFlags.role,
		Status:      journalFlags.status,
		Limit:       journalFlags.limit,
		Offset:      journalFlags.offset,
	}
	if q.Limit == 0 {
		q.Limit = cfg.Journal.Query.DefaultLimit
	}

	if journalFlags.timeRange != "" {
		start, end, err := parseTimeRange(journalFlags.timeRange)
		if err != nil {
			return err
		}
		q.StartTime = &start
		q.EndTime = &end
	}

	query.ApplyDefaults(q)
	if err := query.Validate(q); err != nil {
		return cli.NewCommandError("journal", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Journal.Query.Timeout)
	defer cancel()

	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("journal", fmt.Errorf("query failed: %w", err))
	}

	output := os.Stdout
	if journalFlags.output != "" {
		output, err = os.Create(journalFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	switch format {
	case cli.FormatJSON:
		return export.NewJSONExporter(true).Export(context.Background(), records, output)
	case cli.FormatCSV:
		return export.NewCSVExporter(true).Export(context.Background(), records, output)
	default:
		return outputJournalText(output, records)
	}
}

func outputJournalText(output *os.File, records []*journal.BuildRecord) error {
	fmt.Fprintf(output, "Total records: %d\n\n", len(records))

	if len(records) == 0 {
		fmt.Fprintln(output, "No records found.")
		return nil
	}

	for i, record := range records {
		if i > 0 {
			fmt.Fprintln(output)
		}
		printBuildRecord(output, record, false)

		// Show limited output for large result sets
		if i >= 9 && len(records) > 10 {
			remaining := len(records) - 10
			fmt.Fprintln(output)
			fmt.Fprintf(output, "... and %d more records\n", remaining)
			fmt.Fprintln(output, "Use --limit and --offset for pagination.")
			break
		}
	}

	return nil
}

func showJournal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := openJournal(cfg)
	if err != nil {
		return cli.NewCommandError("journal", err)
	}
	defer store.Close()

	// The storage interface has no point lookup; query a window and
	// match the id prefix.
	records, err := store.Query(context.Background(), &journal.Query{Limit: 1000})
	if err != nil {
		return cli.NewCommandError("journal", fmt.Errorf("query failed: %w", err))
	}

	var matches []*journal.BuildRecord
	for _, record := range records {
		if strings.HasPrefix(record.ID, args[0]) {
			matches = append(matches, record)
		}
	}

	switch len(matches) {
	case 0:
		return cli.NewCommandError("journal", fmt.Errorf("no record matches %q", args[0]))
	case 1:
		printBuildRecord(os.Stdout, matches[0], true)
		return nil
	default:
		fmt.Printf("%d records match %q:\n", len(matches), args[0])
		for _, record := range matches {
			fmt.Printf("  %s (%s)\n", record.ID, record.StartedAt.Format(time.RFC3339))
		}
		return cli.NewCommandError("journal", fmt.Errorf("record id %q is ambiguous", args[0]))
	}
}

func printBuildRecord(output *os.File, record *journal.BuildRecord, full bool) {
	fmt.Fprintf(output, "Record ID: %s\n", record.ID)
	fmt.Fprintf(output, "Machine: %s", record.Machine)
	if record.Environment != "" {
		fmt.Fprintf(output, " (%s)", record.Environment)
	}
	fmt.Fprintln(output)
	fmt.Fprintf(output, "Started: %s\n", record.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(output, "Status: %s\n", record.Status)
	fmt.Fprintf(output, "Roles: %s\n", strings.Join(record.Roles, ", "))
	fmt.Fprintf(output, "Options: %d (from %d modules)\n", record.OptionCount, record.ModuleCount)
	fmt.Fprintf(output, "Duration: %s\n", record.Duration.Round(time.Millisecond))

	if record.Error != "" {
		fmt.Fprintf(output, "Error: %s", record.Error)
		if record.ErrorType != "" {
			fmt.Fprintf(output, " [%s]", record.ErrorType)
		}
		fmt.Fprintln(output)
	}

	if !full {
		if len(record.Renames) > 0 {
			fmt.Fprintf(output, "Renames: %d deprecated reference(s)\n", len(record.Renames))
		}
		return
	}

	fmt.Fprintf(output, "Catalog Version: %s\n", record.CatalogVersion)
	if record.OutputHash != "" {
		fmt.Fprintf(output, "Output Hash: %s\n", record.OutputHash)
	}
	if record.OutputPath != "" {
		fmt.Fprintf(output, "Output Path: %s\n", record.OutputPath)
	}
	fmt.Fprintf(output, "Recorded: %s\n", record.RecordedAt.Format(time.RFC3339))

	if len(record.Renames) > 0 {
		fmt.Fprintln(output, "\nCompatibility rewrites:")
		for _, rename := range record.Renames {
			fmt.Fprintf(output, "  %s -> %s (since %s)\n", rename.From, rename.To, rename.Since)
		}
	}
}

// parseTimeRange parses an RFC3339 interval "start/end".
func parseTimeRange(spec string) (time.Time, time.Time, error) {
	parts := strings.Split(spec, "/")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format (expected: start/end)")
	}

	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}

	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}

	return start, end, nil
}
