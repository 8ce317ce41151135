package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"caldera-hq/basalt/pkg/cli"
	"caldera-hq/basalt/pkg/compat"
)

var optionsFlags struct {
	format string
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Inspect option lifecycle state",
	Long: `Inspect option paths against the compatibility table.

Every option reference in a configuration build passes through the
compatibility table: active paths resolve to themselves, renamed paths
are rewritten to their successor, removed paths fail the build with
remediation guidance.

Subcommands:
  check - Resolve option paths and report their lifecycle state

Examples:
  # Check a single path
  caldera options check basalt.webgateway.listen

  # Check several paths at once
  caldera options check basalt.logging.graylog basalt.kernel.sysctl`,
}

var optionsCheckCmd = &cobra.Command{
	Use:   "check [path]...",
	Short: "Check option paths against the compatibility table",
	Long: `Resolve one or more option paths through the compatibility table.

For each path the lifecycle state is reported: active, renamed (with
the full rewrite chain), or removed (with the remediation text). The
command exits non-zero when any checked path is removed, so it can
serve as a migration pre-flight in scripts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: checkOptions,
}

func init() {
	rootCmd.AddCommand(optionsCmd)
	optionsCmd.AddCommand(optionsCheckCmd)

	optionsCheckCmd.Flags().StringVar(&optionsFlags.format, "format", "text", "output format: text, json")
}

// optionCheckResult is the lifecycle report for one checked path.
type optionCheckResult struct {
	Path    string          `json:"path"`
	State   string          `json:"state"`
	Renames []compat.Rename `json:"renames,omitempty"`
	Target  string          `json:"target,omitempty"`
	Message string          `json:"message,omitempty"`
	Since   string          `json:"since,omitempty"`
}

func checkOptions(cmd *cobra.Command, args []string) error {
	shim := compat.NewShim(compat.Builtin())

	results := make([]optionCheckResult, 0, len(args))
	removed := 0

	for _, path := range args {
		res, err := shim.Resolve(path)
		if err != nil {
			var removedErr *compat.RemovedOptionError
			if errors.As(err, &removedErr) {
				results = append(results, optionCheckResult{
					Path:    path,
					State:   "removed",
					Target:  removedErr.Terminal,
					Message: removedErr.Message,
					Since:   removedErr.Since,
				})
				removed++
				continue
			}
			return cli.NewCommandError("options", err)
		}

		if res.Renamed() {
			results = append(results, optionCheckResult{
				Path:    path,
				State:   "renamed",
				Renames: res.Renames,
				Target:  res.Path,
			})
		} else {
			results = append(results, optionCheckResult{
				Path:  path,
				State: "active",
			})
		}
	}

	if optionsFlags.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			switch res.State {
			case "active":
				fmt.Printf("✓ %s is active\n", res.Path)
			case "renamed":
				fmt.Printf("⚠  %s is deprecated, use %s\n", res.Path, res.Target)
				for _, rename := range res.Renames {
					fmt.Printf("    %s -> %s (since %s)\n", rename.From, rename.To, rename.Since)
				}
			case "removed":
				if res.Target != "" && res.Target != res.Path {
					fmt.Printf("✗ %s (now %s) has been removed (since %s)\n", res.Path, res.Target, res.Since)
				} else {
					fmt.Printf("✗ %s has been removed (since %s)\n", res.Path, res.Since)
				}
				fmt.Printf("    %s\n", res.Message)
			}
		}
	}

	if removed > 0 {
		return cli.NewCommandError("options", fmt.Errorf("%d of %d checked paths are removed", removed, len(args)))
	}
	return nil
}
