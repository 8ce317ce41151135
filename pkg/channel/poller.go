package channel

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// ChangeFunc receives sync results that touched module definition
// files. The initial clone counts as a change.
type ChangeFunc func(result *SyncResult)

// Poller periodically syncs the channel and invokes a callback when the
// module tree changed. Commits that only touch other files advance the
// clone silently.
type Poller struct {
	channel  *Channel
	interval time.Duration
	onChange ChangeFunc
	logger   *slog.Logger

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	onSync    func(*SyncResult, error)
	polls     int64
	changes   int64
	skipped   int64
	failures  int64
	lastPoll  time.Time
	lastEvent time.Time
}

// PollerStats tracks poll loop counters.
type PollerStats struct {
	Polls      int64
	Changes    int64
	Skipped    int64
	Failures   int64
	LastPoll   time.Time
	LastChange time.Time
}

// NewPoller creates a poller for the given channel. A non-positive
// interval falls back to the configured default.
func NewPoller(ch *Channel, interval time.Duration, onChange ChangeFunc, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		channel:  ch,
		interval: interval,
		onChange: onChange,
		logger:   logger,
	}
}

// OnSync registers a callback observing every poll outcome, before any
// change filtering. On sync errors the result is nil. OnSync must be
// called before Start.
func (p *Poller) OnSync(fn func(result *SyncResult, err error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSync = fn
}

// Start launches the poll loop. The first sync happens one interval
// after Start; when no clone exists yet it will be created then.
// Returns an error if the poller is already running.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("poller already running")
	}

	p.stopCh = make(chan struct{})
	p.running = true

	// Captured here so the loop never reads fields that OnSync could
	// write later.
	onSync := p.onSync

	p.logger.Info("channel poller started", "interval", p.interval)

	go p.loop(ctx, p.stopCh, onSync)

	return nil
}

// Stop halts the poll loop. Returns an error if the poller is not
// running.
func (p *Poller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return fmt.Errorf("poller not running")
	}

	close(p.stopCh)
	p.running = false

	p.logger.Info("channel poller stopped")
	return nil
}

// IsRunning reports whether the poll loop is active.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Stats returns a copy of the poll counters.
func (p *Poller) Stats() PollerStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PollerStats{
		Polls:      p.polls,
		Changes:    p.changes,
		Skipped:    p.skipped,
		Failures:   p.failures,
		LastPoll:   p.lastPoll,
		LastChange: p.lastEvent,
	}
}

func (p *Poller) loop(ctx context.Context, stopCh chan struct{}, onSync func(*SyncResult, error)) {
	defer func() {
		p.mu.Lock()
		// A restarted poller owns a fresh stop channel; a stale loop
		// must not clear the new run's flag.
		if p.stopCh == stopCh {
			p.running = false
		}
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("channel poller stopped by context")
			return
		case <-stopCh:
			return
		case <-ticker.C:
			p.poll(ctx, onSync)
		}
	}
}

func (p *Poller) poll(ctx context.Context, onSync func(*SyncResult, error)) {
	result, err := p.channel.Sync(ctx)

	p.mu.Lock()
	p.polls++
	p.lastPoll = time.Now()
	if err != nil {
		p.failures++
	}
	p.mu.Unlock()

	if onSync != nil {
		onSync(result, err)
	}

	if err != nil {
		p.logger.Error("channel poll failed", "error", err)
		return
	}

	if !result.HadChanges {
		return
	}

	if !result.Cloned && !hasModuleChanges(result.ChangedFiles) {
		p.mu.Lock()
		p.skipped++
		p.mu.Unlock()

		p.logger.Info("channel advanced without module changes",
			"from", ShortSHA(result.FromSHA),
			"to", ShortSHA(result.ToSHA))
		return
	}

	p.mu.Lock()
	p.changes++
	p.lastEvent = time.Now()
	p.mu.Unlock()

	p.logger.Info("module tree changed",
		"to", ShortSHA(result.ToSHA),
		"cloned", result.Cloned,
		"changed_files", len(result.ChangedFiles))

	if p.onChange != nil {
		p.onChange(result)
	}
}

// hasModuleChanges reports whether any changed path is a module
// definition file.
func hasModuleChanges(files []string) bool {
	for _, file := range files {
		ext := filepath.Ext(file)
		if ext == ".yaml" || ext == ".yml" {
			return true
		}
	}
	return false
}
