package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"caldera-hq/basalt/pkg/agent"
	"caldera-hq/basalt/pkg/channel"
	"caldera-hq/basalt/pkg/cli"
	"caldera-hq/basalt/pkg/config"
	"caldera-hq/basalt/pkg/journal"
	"caldera-hq/basalt/pkg/maintenance"
	maintstorage "caldera-hq/basalt/pkg/maintenance/storage"
	"caldera-hq/basalt/pkg/telemetry/logging"
	"caldera-hq/basalt/pkg/telemetry/metrics"
	"caldera-hq/basalt/pkg/telemetry/tracing"
)

var agentFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Start the Caldera agent",
	Long: `Start the Caldera agent with the specified configuration.

The agent serves health, readiness and metrics endpoints, runs the
maintenance scheduler, and keeps the module channel clone in sync.

Examples:
  # Start with default config
  caldera agent

  # Start with custom config
  caldera agent --config /etc/basalt/config.yaml

  # Override listen address
  caldera agent --listen 0.0.0.0:9333

  # Validate config without starting the agent
  caldera agent --dry-run`,
	Args: cobra.NoArgs,
	RunE: runAgent,
}

func init() {
	rootCmd.AddCommand(agentCmd)

	agentCmd.Flags().StringVarP(&agentFlags.listenAddress, "listen", "l", "", "override listen address")
	agentCmd.Flags().StringVar(&agentFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	agentCmd.Flags().BoolVar(&agentFlags.dryRun, "dry-run", false, "validate config without starting the agent")
}

func runAgent(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if agentFlags.listenAddress != "" {
		cfg.Agent.ListenAddress = agentFlags.listenAddress
	}
	if agentFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = agentFlags.logLevel
	}

	// Initialize logging based on config. Shutdown flushes the async
	// buffer, so it stays deferred for the lifetime of the command.
	appLogger, err := logging.New(logging.Config{
		Level:          cfg.Telemetry.Logging.Level,
		Format:         cfg.Telemetry.Logging.Format,
		AddSource:      cfg.Telemetry.Logging.AddSource,
		RedactSecrets:  cfg.Telemetry.Logging.RedactSecrets,
		BufferSize:     cfg.Telemetry.Logging.BufferSize,
		RedactPatterns: cfg.Telemetry.Logging.RedactPatterns,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	defer appLogger.Shutdown()

	logger := appLogger.Slog()
	slog.SetDefault(logger)

	if agentFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	// Print startup banner
	printBanner(cfg)

	// Metrics collector
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
		fmt.Println("✓ Metrics collector initialized")
	}

	// Tracing (optional, never fatal)
	if cfg.Telemetry.Tracing.Enabled {
		slog.Info("initializing tracing",
			"endpoint", cfg.Telemetry.Tracing.Endpoint,
		)
		tracer, err := tracing.New(&cfg.Telemetry.Tracing)
		if err != nil {
			slog.Warn("failed to initialize tracing", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracer.Shutdown(shutdownCtx); err != nil {
					slog.Warn("tracer shutdown failed", "error", err)
				}
			}()
			fmt.Println("✓ Tracing initialized")
		}
	}

	// Build journal (if enabled)
	var store journal.Storage
	if cfg.Journal.Enabled {
		slog.Info("initializing build journal",
			"backend", cfg.Journal.Backend,
		)
		store, err = openJournal(cfg)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer store.Close()
		fmt.Println("✓ Build journal initialized")
	}

	// Maintenance spool (if enabled). The manager takes an exclusive
	// lock on the spool, so a running agent blocks the maintenance CLI
	// and vice versa.
	var manager *maintenance.Manager
	if cfg.Maintenance.Enabled {
		slog.Info("initializing maintenance spool",
			"spool_dir", cfg.Maintenance.SpoolDir,
			"schedule", cfg.Maintenance.Schedule,
		)

		var index *maintstorage.ArchiveIndex
		if cfg.Maintenance.Archive.Path != "" {
			index, err = maintstorage.NewArchiveIndex(cfg.Maintenance.Archive.Path)
			if err != nil {
				slog.Warn("archive index unavailable", "error", err)
				index = nil
			}
		}

		manager, err = maintenance.NewManager(&maintenance.Config{
			SpoolDir:        cfg.Maintenance.SpoolDir,
			MaxAttempts:     cfg.Maintenance.MaxAttempts,
			ExecTimeout:     cfg.Maintenance.ExecTimeout,
			ArchiveKeepDays: cfg.Maintenance.Archive.KeepDays,
		}, index, logger)
		if err != nil {
			return fmt.Errorf("failed to open maintenance spool: %w", err)
		}
		defer manager.Close()

		fmt.Printf("✓ Maintenance spool ready (%d request(s))\n", len(manager.Requests()))
	}

	// Module channel (if enabled)
	var ch *channel.Channel
	if cfg.Channel.Enabled {
		slog.Info("initializing module channel",
			"repository", cfg.Channel.Repository,
			"branch", cfg.Channel.Branch,
		)
		ch, err = channel.New(&cfg.Channel, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize channel: %w", err)
		}
		fmt.Println("✓ Module channel initialized")
	}

	a, err := agent.New(agent.Options{
		Config:      cfg,
		Logger:      logger,
		Collector:   collector,
		Maintenance: manager,
		Journal:     store,
		Channel:     ch,
		Version:     Version,
		Commit:      GitCommit,
		BuildTime:   BuildDate,
	})
	if err != nil {
		return cli.NewCommandError("agent", err)
	}

	fmt.Println()
	fmt.Printf("✓ Agent listening on %s\n", cfg.Agent.ListenAddress)
	if cfg.Telemetry.Health.Enabled {
		fmt.Printf("✓ Health endpoint: http://%s%s\n", cfg.Agent.ListenAddress, cfg.Telemetry.Health.LivenessPath)
	}
	if collector != nil && cfg.Telemetry.Metrics.Port == 0 {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Agent.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a shutdown signal arrives or a server fails.
	if err := a.Start(context.Background()); err != nil {
		return cli.NewCommandError("agent", err)
	}

	fmt.Println("✓ Agent stopped")
	return nil
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Caldera Basalt v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	if cfg.Platform.Machine != "" {
		slog.Debug("machine identity", "machine", cfg.Platform.Machine, "environment", cfg.Platform.Environment)
	}
	if cfg.Channel.Enabled {
		slog.Debug("channel enabled", "repository", cfg.Channel.Repository)
	}
	if cfg.Journal.Enabled {
		slog.Debug("journal enabled", "backend", cfg.Journal.Backend)
	}
}
