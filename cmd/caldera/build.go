package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"caldera-hq/basalt/pkg/catalog"
	"caldera-hq/basalt/pkg/cli"
	"caldera-hq/basalt/pkg/compat"
	"caldera-hq/basalt/pkg/config"
	"caldera-hq/basalt/pkg/journal/recorder"
	"caldera-hq/basalt/pkg/modules"
)

var buildFlags struct {
	roles  string
	output string
	format string
	check  bool
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the machine configuration",
	Long: `Resolve the active roles and merge their options into one document.

The build walks the configured role list through the role catalog,
loads the module definitions each role imports, rewrites deprecated
option paths through the compatibility table, and merges module, role,
and operator definitions by precedence tier into a composite
configuration document.

References to renamed options are rewritten transparently and reported
as deprecation warnings on stderr. References to removed options fail
the build with the stored remediation text. Every build is recorded in
the build journal, including failed and check-only runs.

Examples:
  # Build with the configured role list
  caldera build

  # Override the active roles
  caldera build --roles webgateway,loghost

  # Validate without writing output
  caldera build --check

  # Render JSON to a file
  caldera build --format json --output /run/basalt/config.json`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildFlags.roles, "roles", "", "comma-separated active roles (overrides config)")
	buildCmd.Flags().StringVarP(&buildFlags.output, "output", "o", "", `output file (overrides config, "-" for stdout)`)
	buildCmd.Flags().StringVar(&buildFlags.format, "format", "", "output format: yaml, json (overrides config)")
	buildCmd.Flags().BoolVar(&buildFlags.check, "check", false, "validate without writing output")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	logger := commandLogger()

	roles := cfg.Build.Roles
	if buildFlags.roles != "" {
		roles = splitList(buildFlags.roles)
	}

	format := cfg.Build.OutputFormat
	if buildFlags.format != "" {
		format = buildFlags.format
	}
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported output format: %s (supported: yaml, json)", format)
	}

	outputPath := cfg.Build.OutputPath
	if buildFlags.output != "" {
		outputPath = buildFlags.output
	}
	if outputPath == "-" {
		outputPath = ""
	}

	cat, err := catalog.Load(cfg.Build.CatalogPath)
	if err != nil {
		return cli.NewCommandError("build", fmt.Errorf("failed to load role catalog: %w", err))
	}
	set := catalog.NewRegistry(cat).Resolve(roles)

	resolver, err := modules.NewResolver(cat, compat.NewShim(compat.Builtin()), &modules.Config{
		ModuleDir:   cfg.Build.ModuleDir,
		SnapshotDir: cfg.Build.SnapshotDir,
	}, logger)
	if err != nil {
		return cli.NewCommandError("build", err)
	}

	overrides, err := modules.LoadOverrides(cfg.Build.OverridesPath)
	if err != nil {
		return cli.NewCommandError("build", fmt.Errorf("failed to load operator overrides: %w", err))
	}

	ctx := context.Background()
	started := time.Now()
	composite, err := resolver.Resolve(ctx, set, overrides)

	result := &recorder.BuildResult{
		Machine:     cfg.Platform.Machine,
		Environment: cfg.Platform.Environment,
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Composite:   composite,
		Check:       buildFlags.check,
		Err:         err,
	}

	if err != nil {
		recordBuild(ctx, cfg, logger, result)
		return cli.NewCommandError("build", err)
	}

	// Deprecation warnings go out before any rendered output.
	for _, rename := range composite.Renames() {
		fmt.Fprintf(os.Stderr, "⚠  Warning: option %s was renamed to %s (since %s), referenced by %s\n",
			rename.From, rename.To, rename.Since, rename.Origin)
	}

	var output []byte
	if format == "json" {
		output, err = composite.RenderJSON()
	} else {
		output, err = composite.RenderYAML()
	}
	if err != nil {
		result.Err = err
		result.FinishedAt = time.Now()
		recordBuild(ctx, cfg, logger, result)
		return cli.NewCommandError("build", fmt.Errorf("failed to render configuration: %w", err))
	}
	result.Output = output
	result.FinishedAt = time.Now()

	if buildFlags.check {
		recordBuild(ctx, cfg, logger, result)
		fmt.Printf("✓ %d options from %d roles resolve cleanly\n", composite.Len(), len(composite.Roles()))
		return nil
	}

	if outputPath == "" {
		if _, err := os.Stdout.Write(output); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(outputPath, output, 0644); err != nil {
			result.Err = err
			recordBuild(ctx, cfg, logger, result)
			return cli.NewCommandError("build", fmt.Errorf("failed to write output: %w", err))
		}
		result.OutputPath = outputPath
		fmt.Printf("✓ Configuration written: %s (%d options)\n", outputPath, composite.Len())
	}

	recordBuild(ctx, cfg, logger, result)
	return nil
}

// recordBuild writes one journal record for a build outcome. Journal
// failures are logged, never fatal: a broken journal must not block
// configuration builds.
func recordBuild(ctx context.Context, cfg *config.Config, logger *slog.Logger, result *recorder.BuildResult) {
	if !cfg.Journal.Enabled {
		return
	}

	store, err := openJournal(cfg)
	if err != nil {
		logger.Warn("journal unavailable, build not recorded", "error", err)
		return
	}
	defer store.Close()

	rec := recorder.NewRecorder(store, nil)
	if err := rec.RecordBuild(ctx, result); err != nil {
		logger.Warn("failed to record build", "error", err)
	}
	if err := rec.Close(); err != nil {
		logger.Warn("failed to flush build record", "error", err)
	}
}
