package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives periodic maintenance cycles. It runs the manager's
// RunCycle at scheduled intervals (e.g. every ten minutes) using cron
// syntax.
type Scheduler struct {
	manager  *Manager
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
	onCycle  func(*CycleResult)
}

// NewScheduler creates a maintenance scheduler for the given manager.
func NewScheduler(manager *Manager, schedule string) *Scheduler {
	return &Scheduler{
		manager:  manager,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "maintenance.scheduler"),
	}
}

// OnCycle registers a callback invoked after every completed cycle.
// The agent uses this to publish spool gauges and execution metrics.
// OnCycle must be called before Start.
func (s *Scheduler) OnCycle(fn func(*CycleResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCycle = fn
}

// Start begins scheduled maintenance cycles based on the cron
// expression.
//
// Common cron expressions:
//   - "*/10 * * * *" - Every 10 minutes
//   - "0 * * * *"    - Hourly
//   - "0 3 * * *"    - Daily at 3 AM
//
// If the schedule is empty, the scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("maintenance schedule not configured, skipping scheduler")
		return nil
	}

	// Validate cron expression
	_, err := cron.ParseStandard(s.schedule)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	// Add cron job. The callback is captured here so cycles never take
	// the scheduler lock, which Stop holds while draining.
	fn := s.onCycle
	_, err = s.cron.AddFunc(s.schedule, func() {
		s.runCycle(ctx, fn)
	})

	if err != nil {
		return fmt.Errorf("failed to schedule maintenance cycles: %w", err)
	}

	// Start cron scheduler
	s.cron.Start()
	s.running = true

	s.logger.Info("maintenance scheduler started",
		"schedule", s.schedule,
		"spool_dir", s.manager.config.SpoolDir,
		"max_attempts", s.manager.config.MaxAttempts,
	)

	// Wait for context cancellation in background
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runCycle executes one maintenance cycle.
func (s *Scheduler) runCycle(ctx context.Context, fn func(*CycleResult)) {
	s.logger.Debug("starting maintenance cycle")

	result, err := s.manager.RunCycle(ctx)
	if err != nil {
		s.logger.Error("maintenance cycle failed",
			"error", err,
		)
		return
	}

	if len(result.Executed) > 0 || len(result.Archived) > 0 {
		s.logger.Info("maintenance cycle completed",
			"executed", len(result.Executed),
			"archived", len(result.Archived),
		)
	} else {
		s.logger.Debug("maintenance cycle completed, nothing to do")
	}

	if fn != nil {
		fn(result)
	}
}

// Stop stops the scheduler and waits for a running cycle to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done() // Wait for running jobs to finish
		s.running = false
		s.logger.Info("maintenance scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled cycle time.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
