package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"caldera-hq/basalt/pkg/config"
)

// defaultConfigPath is used when no --config flag is given. A missing
// file at this path is not an error; the builtin defaults apply.
const defaultConfigPath = "/etc/basalt/config.yaml"

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "caldera",
	Short: "Caldera Basalt - infrastructure role coordination",
	Long: `Caldera Basalt turns a machine's role list into a merged configuration.

It resolves the modules each active role imports, rewrites deprecated
option paths through the compatibility table, and merges everything
into one composite document, providing:
  - Role catalog with snapshot-pinned module imports
  - Option lifecycle management (renames, removals, remediation)
  - Certificate issuing and startup gating for dependent services
  - Maintenance request spooling with scheduled execution
  - A build journal for configuration audit trails

For more information, visit: https://github.com/caldera-hq/basalt`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}

// commandLogger returns the logger for one-shot commands. Diagnostics
// go to stderr so rendered output on stdout stays parseable.
func commandLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads the file named by --config. A missing file at the
// default path falls back to builtin defaults so commands work on
// machines that were never configured; an explicitly given path must
// exist.
//
// The loaded config is published as the process-wide instance, so
// repeated calls within one command share it instead of re-reading the
// file.
func loadConfig() (*config.Config, error) {
	if cfg := config.GetConfig(); cfg != nil {
		return cfg, nil
	}

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if cfgFile == defaultConfigPath {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			config.SetConfig(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config file %s does not exist", cfgFile)
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	config.SetConfig(cfg)
	return cfg, nil
}

// splitList splits a comma-separated flag value, trimming whitespace
// and dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
