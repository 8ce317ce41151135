package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"caldera-hq/basalt/pkg/cli"
	"caldera-hq/basalt/pkg/gate"
)

var gateFlags struct {
	dir       string
	artifacts []string
	interval  time.Duration
	timeout   time.Duration
	watch     bool
}

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Certificate gate for dependent services",
	Long: `Block service startup until certificate artifacts exist.

Services that need certificates at startup run the gate as a
precondition (systemd ExecStartPre). The gate polls the certificate
directory until every expected artifact file exists, then exits
successfully. The issuing side runs independently; the gate only
observes the directory.

Subcommands:
  wait - Block until all expected artifacts exist

Examples:
  # Wait for one certificate bundle
  caldera gate wait --dir /var/lib/basalt/certs --artifact web.pem

  # Bounded wait with directory watching
  caldera gate wait --artifact db.pem --timeout 5m --watch`,
}

var gateWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until all expected artifacts exist",
	Long: `Block until every expected artifact file exists in the gate directory.

The wait polls at a fixed interval. With --watch, filesystem events
wake the poll early; polling stays the source of truth, so a lost
event only delays the check by one interval. By default the wait is
unbounded, matching the startup precondition role; --timeout bounds it
and exits non-zero with the missing artifacts listed.

SIGINT and SIGTERM cancel the wait.

Examples:
  # Wait indefinitely for a certificate
  caldera gate wait --dir /var/lib/basalt/certs --artifact web.pem

  # Wait for several artifacts with a deadline
  caldera gate wait --artifact web.pem --artifact db.pem --timeout 2m`,
	RunE: waitGate,
}

func init() {
	rootCmd.AddCommand(gateCmd)
	gateCmd.AddCommand(gateWaitCmd)

	gateWaitCmd.Flags().StringVar(&gateFlags.dir, "dir", "", "artifact directory (overrides config)")
	gateWaitCmd.Flags().StringArrayVar(&gateFlags.artifacts, "artifact", nil, "expected artifact name, .pem suffix optional (repeatable)")
	gateWaitCmd.Flags().DurationVar(&gateFlags.interval, "interval", 0, "poll interval (overrides config)")
	gateWaitCmd.Flags().DurationVar(&gateFlags.timeout, "timeout", -1, "total wait bound, 0 waits forever (overrides config)")
	gateWaitCmd.Flags().BoolVar(&gateFlags.watch, "watch", false, "wake polls on directory changes")
}

func waitGate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	logger := commandLogger()

	dir := cfg.Gate.Dir
	if gateFlags.dir != "" {
		dir = gateFlags.dir
	}
	interval := cfg.Gate.Interval
	if gateFlags.interval > 0 {
		interval = gateFlags.interval
	}
	timeout := cfg.Gate.Timeout
	if gateFlags.timeout >= 0 {
		timeout = gateFlags.timeout
	}

	// The gate takes base names and appends .pem itself. Accept both
	// spellings on the flag so "--artifact web.pem" means web.pem, not
	// web.pem.pem.
	artifacts := make([]string, 0, len(gateFlags.artifacts))
	for _, name := range gateFlags.artifacts {
		artifacts = append(artifacts, strings.TrimSuffix(name, gate.ArtifactExt))
	}

	g, err := gate.New(&gate.Config{
		Dir:       dir,
		Artifacts: artifacts,
		Interval:  interval,
		Timeout:   timeout,
		Watch:     gateFlags.watch || cfg.Gate.Watch,
	}, logger)
	if err != nil {
		return cli.NewCommandError("gate", err)
	}

	fmt.Printf("Waiting for %d artifact(s) in %s...\n", len(g.Artifacts()), g.Dir())

	// Periodic status lines keep the service journal informative while
	// the gate blocks.
	reporter := cli.NewWaitReporter(os.Stdout, 30*time.Second, g.Missing)
	reporter.Start()

	started := time.Now()
	ctx := cli.SetupSignalHandler()
	err = g.Wait(ctx)
	reporter.Stop()
	if err != nil {
		return cli.NewCommandError("gate", err)
	}

	fmt.Printf("✓ All artifacts present after %s\n", time.Since(started).Round(time.Millisecond))
	return nil
}
