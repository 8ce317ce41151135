package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"caldera-hq/basalt/pkg/catalog"
	"caldera-hq/basalt/pkg/cli"
	"caldera-hq/basalt/pkg/compat"
	"caldera-hq/basalt/pkg/modules"
)

var validateFlags struct {
	format string
}

type validationResult struct {
	Check   string `json:"check"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and role catalog",
	Long: `Validate the configuration, the role catalog, and the module tree.

The validate command runs the same resolution pipeline as a build
without writing any output. It verifies:
  - The configuration file parses and passes validation
  - The role catalog loads and the active roles exist
  - Operator overrides parse
  - Module imports resolve and merge without conflicts

Examples:
  # Validate the configured setup
  caldera validate

  # Machine-readable report
  caldera validate --format json`,
	Args: cobra.NoArgs,
	RunE: validateSetup,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

func validateSetup(cmd *cobra.Command, args []string) error {
	var results []validationResult
	record := func(check, status, message string) {
		results = append(results, validationResult{Check: check, Status: status, Message: message})
	}

	cfg, err := loadConfig()
	if err != nil {
		record("config", "failed", err.Error())
		return reportValidation(results)
	}
	record("config", "ok", fmt.Sprintf("configuration valid (%s)", cfgFile))

	cat, err := catalog.Load(cfg.Build.CatalogPath)
	if err != nil {
		record("catalog", "failed", err.Error())
		return reportValidation(results)
	}
	record("catalog", "ok", fmt.Sprintf("role catalog %s (%d roles)", cat.Version(), cat.Len()))

	set := catalog.NewRegistry(cat).Resolve(cfg.Build.Roles)
	var unknown []string
	for _, name := range set.Active() {
		if !cat.Has(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		record("roles", "failed", fmt.Sprintf("unknown role(s): %s", strings.Join(unknown, ", ")))
	} else {
		record("roles", "ok", fmt.Sprintf("%d active role(s)", len(set.Active())))
	}

	overrides, err := modules.LoadOverrides(cfg.Build.OverridesPath)
	if err != nil {
		record("overrides", "failed", err.Error())
	} else if cfg.Build.OverridesPath != "" {
		record("overrides", "ok", fmt.Sprintf("%d override(s)", len(overrides)))
	}

	// Dry resolve, skipped when an earlier check already failed.
	if len(unknown) == 0 && err == nil {
		resolver, err := modules.NewResolver(cat, compat.NewShim(compat.Builtin()), &modules.Config{
			ModuleDir:   cfg.Build.ModuleDir,
			SnapshotDir: cfg.Build.SnapshotDir,
		}, commandLogger())
		if err != nil {
			record("resolve", "failed", err.Error())
		} else if composite, err := resolver.Resolve(context.Background(), set, overrides); err != nil {
			record("resolve", "failed", err.Error())
		} else {
			record("resolve", "ok", fmt.Sprintf("%d options from %d roles", composite.Len(), len(composite.Roles())))
			if renames := composite.Renames(); len(renames) > 0 {
				record("compat", "warning", fmt.Sprintf("%d deprecated option reference(s)", len(renames)))
			}
		}
	}

	return reportValidation(results)
}

func reportValidation(results []validationResult) error {
	failed := 0
	warnings := 0
	for _, r := range results {
		switch r.Status {
		case "failed":
			failed++
		case "warning":
			warnings++
		}
	}

	if validateFlags.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(map[string]any{
			"results":  results,
			"failed":   failed,
			"warnings": warnings,
		}); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	} else {
		for _, r := range results {
			marker := "✓"
			switch r.Status {
			case "failed":
				marker = "✗"
			case "warning":
				marker = "⚠ "
			}
			fmt.Printf("%s %s: %s\n", marker, r.Check, r.Message)
		}

		fmt.Println()
		switch {
		case failed > 0:
			fmt.Printf("Summary: %d check(s) failed\n", failed)
		case warnings > 0:
			fmt.Printf("Summary: all checks passed with %d warning(s)\n", warnings)
		default:
			fmt.Println("Summary: all checks passed")
		}
	}

	if failed > 0 {
		return cli.NewCommandError("validate", fmt.Errorf("%d validation check(s) failed", failed))
	}
	return nil
}
