// Package agent runs the long-lived process mode: an HTTP diagnostics
// endpoint plus the background loops that keep a machine converged,
// scheduled maintenance cycles and channel polling.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"caldera-hq/basalt/pkg/channel"
	"caldera-hq/basalt/pkg/config"
	"caldera-hq/basalt/pkg/journal"
	"caldera-hq/basalt/pkg/maintenance"
	"caldera-hq/basalt/pkg/telemetry/health"
	"caldera-hq/basalt/pkg/telemetry/metrics"
	"caldera-hq/basalt/pkg/telemetry/tracing"
)

// Options carries the subsystems the agent supervises. Nil fields
// disable the corresponding endpoint, check or loop.
type Options struct {
	// Config is required.
	Config *config.Config

	Logger    *slog.Logger
	Collector *metrics.Collector

	// Maintenance enables scheduled maintenance cycles when the
	// configured schedule is non-empty.
	Maintenance *maintenance.Manager

	// Journal adds a readiness check when the backend can be pinged.
	Journal journal.Storage

	// Channel enables the poll loop when polling is configured.
	Channel *channel.Channel

	Version   string
	Commit    string
	BuildTime string
}

// Pinger is implemented by storage backends that can verify their
// connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Agent serves /health, /ready, /version and /metrics and supervises
// the maintenance scheduler and the channel poller.
type Agent struct {
	config    *config.Config
	logger    *slog.Logger
	collector *metrics.Collector
	manager   *maintenance.Manager
	journal   journal.Storage
	channel   *channel.Channel

	checker   *health.Checker
	scheduler *maintenance.Scheduler
	poller    *channel.Poller

	version   string
	commit    string
	buildTime string

	httpServer    *http.Server
	metricsServer *http.Server
	shutdownOnce  sync.Once
	mu            sync.RWMutex
	isRunning     bool
}

// New assembles an agent from the given subsystems.
func New(opts Options) (*Agent, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Agent{
		config:    opts.Config,
		logger:    logger,
		collector: opts.Collector,
		manager:   opts.Maintenance,
		journal:   opts.Journal,
		channel:   opts.Channel,
		version:   opts.Version,
		commit:    opts.Commit,
		buildTime: opts.BuildTime,
	}

	a.checker = health.New(opts.Config.Telemetry.Health.CheckTimeout)
	a.registerChecks()

	if a.manager != nil && opts.Config.Maintenance.Enabled && opts.Config.Maintenance.Schedule != "" {
		a.scheduler = maintenance.NewScheduler(a.manager, opts.Config.Maintenance.Schedule)
		a.scheduler.OnCycle(a.recordCycle)
	}

	if a.channel != nil && opts.Config.Channel.Poll.Enabled {
		a.poller = channel.NewPoller(a.channel, opts.Config.Channel.Poll.Interval, a.onModuleChange, logger)
		a.poller.OnSync(a.recordSync)
	}

	return a, nil
}

// registerChecks wires readiness checks for the subsystems the agent
// was given. The channel is deliberately not a readiness gate: a
// machine stays serviceable while its channel lags.
func (a *Agent) registerChecks() {
	if pinger, ok := a.journal.(Pinger); ok {
		a.checker.RegisterCheck("journal", func(ctx context.Context) error {
			return pinger.Ping(ctx)
		})
	}

	if a.manager != nil {
		spoolDir := a.config.Maintenance.SpoolDir
		a.checker.RegisterCheck("maintenance_spool", func(ctx context.Context) error {
			if _, err := os.Stat(spoolDir); err != nil {
				return fmt.Errorf("spool not accessible: %w", err)
			}
			return nil
		})
	}
}

// Start runs the agent and blocks until the context is cancelled, a
// shutdown signal arrives, or the HTTP server fails.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.isRunning {
		a.mu.Unlock()
		return fmt.Errorf("agent is already running")
	}
	a.isRunning = true
	a.mu.Unlock()

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			a.markStopped()
			return fmt.Errorf("failed to start maintenance scheduler: %w", err)
		}
		if next := a.scheduler.NextRun(); next != nil {
			a.logger.Info("maintenance scheduler started",
				"schedule", a.config.Maintenance.Schedule,
				"next_run", next)
		}
	}

	if a.poller != nil {
		// Bring the clone up to date before the first poll interval
		// elapses. The agent serves regardless of the outcome.
		go func() {
			result, err := a.channel.Sync(ctx)
			a.recordSync(result, err)
			if err != nil {
				a.logger.Error("initial channel sync failed", "error", err)
				return
			}
			a.onModuleChange(result)
		}()

		if err := a.poller.Start(ctx); err != nil {
			if a.scheduler != nil && a.scheduler.IsRunning() {
				a.scheduler.Stop()
			}
			a.markStopped()
			return fmt.Errorf("failed to start channel poller: %w", err)
		}
	}

	a.httpServer = &http.Server{
		Addr:         a.config.Agent.ListenAddress,
		Handler:      a.setupRoutes(),
		ReadTimeout:  a.config.Agent.ReadTimeout,
		WriteTimeout: a.config.Agent.WriteTimeout,
		IdleTimeout:  a.config.Agent.IdleTimeout,
	}

	errChan := make(chan error, 2)
	go func() {
		a.logger.Info("agent listening", "address", a.config.Agent.ListenAddress)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("agent server error: %w", err)
		}
	}()

	if port := a.config.Telemetry.Metrics.Port; port > 0 && a.collector != nil {
		mux := http.NewServeMux()
		mux.Handle(a.metricsPath(), a.collector.Handler())
		a.metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}
		go func() {
			a.logger.Info("metrics listening", "address", a.metricsServer.Addr)
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down")
		return a.Shutdown(context.Background())
	case sig := <-sigChan:
		a.logger.Info("received shutdown signal", "signal", sig.String())
		return a.Shutdown(context.Background())
	case err := <-errChan:
		a.Shutdown(context.Background())
		return err
	}
}

// Shutdown stops the loops and drains the HTTP server. Safe to call
// more than once.
func (a *Agent) Shutdown(ctx context.Context) error {
	var shutdownErr error

	a.shutdownOnce.Do(func() {
		a.mu.Lock()
		if !a.isRunning {
			a.mu.Unlock()
			return
		}
		a.mu.Unlock()

		a.logger.Info("shutting down agent",
			"timeout", a.config.Agent.ShutdownTimeout.String())

		if a.poller != nil && a.poller.IsRunning() {
			if err := a.poller.Stop(); err != nil {
				a.logger.Warn("failed to stop channel poller", "error", err)
			}
		}

		if a.scheduler != nil && a.scheduler.IsRunning() {
			a.scheduler.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, a.config.Agent.ShutdownTimeout)
		defer cancel()

		if a.httpServer != nil {
			if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("error during agent shutdown", "error", err)
				shutdownErr = fmt.Errorf("agent shutdown error: %w", err)
			}
		}
		if a.metricsServer != nil {
			if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("error during metrics shutdown", "error", err)
			}
		}

		a.markStopped()
		a.logger.Info("agent stopped")
	})

	return shutdownErr
}

func (a *Agent) markStopped() {
	a.mu.Lock()
	a.isRunning = false
	a.mu.Unlock()
}

// IsRunning reports whether the agent is serving.
func (a *Agent) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.isRunning
}

// Handler returns the configured HTTP handler, for tests and embedding.
func (a *Agent) Handler() http.Handler {
	return a.setupRoutes()
}

// Checker exposes the health checker so callers can register extra
// readiness checks before Start.
func (a *Agent) Checker() *health.Checker {
	return a.checker
}

func (a *Agent) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	healthCfg := &a.config.Telemetry.Health
	if healthCfg.Enabled {
		handlers := a.checker.CreateHandlers(a.version, a.commit, a.buildTime)
		mux.HandleFunc(pathOrDefault(healthCfg.LivenessPath, "/health"), handlers.LivenessHandler)
		mux.HandleFunc(pathOrDefault(healthCfg.ReadinessPath, "/ready"), handlers.ReadinessHandler)
		mux.HandleFunc(pathOrDefault(healthCfg.VersionPath, "/version"), handlers.VersionHandler)
	}

	// On a dedicated metrics port the main mux stays without /metrics.
	if a.collector != nil && a.config.Telemetry.Metrics.Enabled && a.config.Telemetry.Metrics.Port == 0 {
		mux.Handle(a.metricsPath(), a.collector.Handler())
	}

	// Probes carrying a traceparent join the caller's trace, so an
	// orchestrator's readiness polls line up with its deploy spans.
	if a.config.Telemetry.Tracing.Enabled {
		return tracing.HTTPMiddleware(mux)
	}

	return mux
}

func (a *Agent) metricsPath() string {
	return pathOrDefault(a.config.Telemetry.Metrics.Path, "/metrics")
}

func pathOrDefault(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}

// spoolStates are the states a spooled request can sit in between
// cycles. Gauges for all of them are updated every cycle so drained
// states drop back to zero.
var spoolStates = []maintenance.State{
	maintenance.StatePending,
	maintenance.StateDue,
	maintenance.StateRunning,
	maintenance.StateTempfail,
	maintenance.StatePostpone,
}

// recordCycle publishes the outcome of one maintenance cycle.
func (a *Agent) recordCycle(result *maintenance.CycleResult) {
	if a.collector == nil {
		return
	}

	for _, req := range result.Executed {
		attempt := req.LastAttempt()
		if attempt == nil {
			continue
		}
		a.collector.RecordMaintenanceExecution(req.State.String(), attempt.Duration, len(req.Attempts))
		a.collector.RecordMaintenanceTransition(req.State.String())
	}

	for _, state := range spoolStates {
		a.collector.UpdateSpoolSize(state.String(), result.Counts[state])
	}
}

// recordSync publishes the outcome of one channel sync.
func (a *Agent) recordSync(result *channel.SyncResult, err error) {
	if a.collector == nil {
		return
	}
	if err != nil {
		a.collector.RecordChannelSync("error", 0)
		return
	}
	a.collector.RecordChannelSync("success", result.Duration)
}

// onModuleChange refreshes the module count gauge after the module
// tree changed.
func (a *Agent) onModuleChange(*channel.SyncResult) {
	files, err := a.channel.ListModuleFiles()
	if err != nil {
		a.logger.Warn("failed to list module files", "error", err)
		return
	}
	if a.collector != nil {
		a.collector.UpdateChannelModules(len(files))
	}
}
