package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"caldera-hq/basalt/pkg/cli"
	"caldera-hq/basalt/pkg/config"
	"caldera-hq/basalt/pkg/maintenance"
	"caldera-hq/basalt/pkg/maintenance/storage"
)

var maintenanceFlags struct {
	command  string
	estimate string
	comment  string
	archived bool
	state    string
	limit    int
	format   string
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Manage the maintenance request spool",
	Long: `Manage the maintenance request spool.

Maintenance requests wrap shell commands that need a scheduled
execution slot: reboots, pool migrations, kernel updates. Requests
wait in the spool until due, run with retry handling, and move to the
archive with a terminal outcome.

The spool is locked exclusively, so these commands cannot run while
the agent holds the spool (and vice versa).

Subcommands:
  list    - List spooled requests (or archived ones)
  add     - File a new request
  due     - Show requests that are due now
  archive - Move finished requests to the archive

Examples:
  # File a reboot request
  caldera maintenance add --command "reboot" --estimate 10m --comment "kernel update"

  # Show the spool
  caldera maintenance list

  # Show past requests
  caldera maintenance list --archived --limit 20`,
}

var maintenanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List maintenance requests",
	Long: `List requests in the active spool, oldest first.

With --archived the archive index is queried instead: a summary of
requests that already reached a terminal outcome, newest first,
optionally filtered by outcome state.`,
	RunE: listMaintenance,
}

var maintenanceAddCmd = &cobra.Command{
	Use:   "add",
	Short: "File a maintenance request",
	Long: `File a new maintenance request in the spool.

The command is run through the shell when the request becomes due.
The estimate sizes the execution slot; it accepts Go duration notation
("30m", "1h30m"), bare seconds ("900"), and space-separated
combinations.`,
	RunE: addMaintenance,
}

var maintenanceDueCmd = &cobra.Command{
	Use:   "due",
	Short: "Show due requests",
	Long: `Show requests that are due for execution now.

Time-dependent state transitions are applied first, so a scheduled
request whose due date has passed shows up here.`,
	RunE: dueMaintenance,
}

var maintenanceArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive finished requests",
	Long: `Move finished requests out of the active spool.

Requests with a terminal outcome (success, error, retrylimit, deleted)
are moved to the archive directory and summarized in the archive
index.`,
	RunE: archiveMaintenance,
}

func init() {
	rootCmd.AddCommand(maintenanceCmd)
	maintenanceCmd.AddCommand(maintenanceListCmd, maintenanceAddCmd, maintenanceDueCmd, maintenanceArchiveCmd)

	maintenanceListCmd.Flags().BoolVar(&maintenanceFlags.archived, "archived", false, "list archived requests instead of the spool")
	maintenanceListCmd.Flags().StringVar(&maintenanceFlags.state, "state", "", "filter archived requests by outcome state")
	maintenanceListCmd.Flags().IntVar(&maintenanceFlags.limit, "limit", 50, "max archived requests to list")
	maintenanceListCmd.Flags().StringVar(&maintenanceFlags.format, "format", "text", "output format: text, json")

	maintenanceAddCmd.Flags().StringVar(&maintenanceFlags.command, "command", "", "shell command to execute (required)")
	maintenanceAddCmd.Flags().StringVar(&maintenanceFlags.estimate, "estimate", "5m", "expected execution duration")
	maintenanceAddCmd.Flags().StringVar(&maintenanceFlags.comment, "comment", "", "description for operators")
}

// openSpool opens the maintenance manager with its archive index. The
// caller must call the returned close function.
func openSpool(cfg *config.Config) (*maintenance.Manager, func(), error) {
	logger := commandLogger()

	index, err := storage.NewArchiveIndex(cfg.Maintenance.Archive.Path)
	if err != nil {
		// The archive index is a summary; the spool works without it.
		logger.Warn("archive index unavailable", "error", err)
		index = nil
	}

	mgr, err := maintenance.NewManager(&maintenance.Config{
		SpoolDir:        cfg.Maintenance.SpoolDir,
		MaxAttempts:     cfg.Maintenance.MaxAttempts,
		ExecTimeout:     cfg.Maintenance.ExecTimeout,
		ArchiveKeepDays: cfg.Maintenance.Archive.KeepDays,
	}, index, logger)
	if err != nil {
		if index != nil {
			index.Close()
		}
		return nil, nil, err
	}

	closeAll := func() {
		mgr.Close()
		if index != nil {
			index.Close()
		}
	}
	return mgr, closeAll, nil
}

func listMaintenance(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if maintenanceFlags.archived {
		return listArchivedMaintenance(cfg)
	}

	mgr, closeSpool, err := openSpool(cfg)
	if err != nil {
		return cli.NewCommandError("maintenance", err)
	}
	defer closeSpool()

	requests := mgr.Requests()

	if maintenanceFlags.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(requests)
	}

	if len(requests) == 0 {
		fmt.Println("The maintenance spool is empty.")
		return nil
	}

	fmt.Printf("%d request(s) in the spool:\n\n", len(requests))
	for _, req := range requests {
		printRequest(req)
		fmt.Println()
	}

	counts := mgr.CountByState()
	fmt.Println("By state:")
	for _, state := range []maintenance.State{
		maintenance.StatePending, maintenance.StateDue, maintenance.StateRunning,
		maintenance.StateSuccess, maintenance.StateTempfail, maintenance.StatePostpone,
		maintenance.StateError, maintenance.StateRetryLimit,
	} {
		if counts[state] > 0 {
			fmt.Printf("  %s: %d\n", state, counts[state])
		}
	}

	return nil
}

func listArchivedMaintenance(cfg *config.Config) error {
	index, err := storage.NewArchiveIndex(cfg.Maintenance.Archive.Path)
	if err != nil {
		return cli.NewCommandError("maintenance", fmt.Errorf("failed to open archive index: %w", err))
	}
	defer index.Close()

	entries, err := index.List(context.Background(), maintenanceFlags.state, maintenanceFlags.limit)
	if err != nil {
		return cli.NewCommandError("maintenance", fmt.Errorf("failed to list archive: %w", err))
	}

	if maintenanceFlags.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No archived requests found.")
		return nil
	}

	fmt.Printf("%d archived request(s):\n\n", len(entries))
	for _, entry := range entries {
		fmt.Printf("Request: %s\n", entry.ID)
		fmt.Printf("  Command: %s\n", entry.Command)
		if entry.Comment != "" {
			fmt.Printf("  Comment: %s\n", entry.Comment)
		}
		fmt.Printf("  Outcome: %s (exit %d, %d attempt(s), %s)\n",
			entry.State, entry.LastExit, entry.Attempts, entry.Duration.Round(time.Millisecond))
		fmt.Printf("  Archived: %s\n", entry.ArchivedAt.Format(time.RFC3339))
		fmt.Println()
	}

	return nil
}

func addMaintenance(cmd *cobra.Command, args []string) error {
	if maintenanceFlags.command == "" {
		return fmt.Errorf("--command is required")
	}

	estimate, err := maintenance.ParseEstimate(maintenanceFlags.estimate)
	if err != nil {
		return cli.NewCommandError("maintenance", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	mgr, closeSpool, err := openSpool(cfg)
	if err != nil {
		return cli.NewCommandError("maintenance", err)
	}
	defer closeSpool()

	req, err := mgr.Add(maintenance.NewRequest(maintenanceFlags.command, estimate, maintenanceFlags.comment))
	if err != nil {
		return cli.NewCommandError("maintenance", err)
	}

	fmt.Printf("✓ Request filed: %s\n", req.ID)
	fmt.Printf("  Command: %s\n", req.Command)
	fmt.Printf("  Estimate: %s\n", req.Estimate)
	if req.Comment != "" {
		fmt.Printf("  Comment: %s\n", req.Comment)
	}

	return nil
}

func dueMaintenance(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	mgr, closeSpool, err := openSpool(cfg)
	if err != nil {
		return cli.NewCommandError("maintenance", err)
	}
	defer closeSpool()

	mgr.UpdateStates(time.Now())

	due := mgr.Due()
	if len(due) == 0 {
		fmt.Println("No requests are due.")
		return nil
	}

	fmt.Printf("%d request(s) due:\n\n", len(due))
	for _, req := range due {
		printRequest(req)
		fmt.Println()
	}

	return nil
}

func archiveMaintenance(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	mgr, closeSpool, err := openSpool(cfg)
	if err != nil {
		return cli.NewCommandError("maintenance", err)
	}
	defer closeSpool()

	archived := mgr.Archive(context.Background())
	if len(archived) == 0 {
		fmt.Println("No finished requests to archive.")
		return nil
	}

	for _, req := range archived {
		fmt.Printf("✓ Archived %s (%s): %s\n", req.ID, req.State, req.Command)
	}
	fmt.Printf("\n%d request(s) archived.\n", len(archived))

	return nil
}

func printRequest(req *maintenance.Request) {
	fmt.Printf("Request: %s\n", req.ID)
	fmt.Printf("  Command: %s\n", req.Command)
	if req.Comment != "" {
		fmt.Printf("  Comment: %s\n", req.Comment)
	}
	fmt.Printf("  State: %s\n", req.State)
	fmt.Printf("  Estimate: %s\n", req.Estimate)
	fmt.Printf("  Added: %s\n", req.AddedAt.Format(time.RFC3339))
	if !req.NextDue.IsZero() {
		fmt.Printf("  Due: %s\n", req.NextDue.Format(time.RFC3339))
	}
	if attempt := req.LastAttempt(); attempt != nil {
		fmt.Printf("  Last attempt: exit %d after %s\n",
			attempt.ReturnCode, attempt.Duration.Round(time.Millisecond))
	}
}
