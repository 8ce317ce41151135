package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"caldera-hq/basalt/pkg/maintenance/storage"
)

// Default manager settings.
const (
	// DefaultMaxAttempts caps execution attempts per request.
	DefaultMaxAttempts = 48

	// DefaultExecTimeout bounds a single command execution.
	DefaultExecTimeout = time.Hour

	// DefaultPostponeInterval is how far postponed requests are pushed
	// into the future.
	DefaultPostponeInterval = 30 * time.Minute
)

// Spool subdirectories.
const (
	requestsDirName = "requests"
	archiveDirName  = "archive"
	lockFileName    = ".lock"
)

// Config configures the maintenance request manager.
type Config struct {
	// SpoolDir is the directory holding request state. Active requests
	// live in SpoolDir/requests/<id>/, finished ones are moved to
	// SpoolDir/archive/<id>/.
	SpoolDir string

	// MaxAttempts is how many recorded attempts a request may accumulate
	// before it is closed with the retrylimit outcome.
	// Default: 48
	MaxAttempts int

	// ExecTimeout bounds a single request execution.
	// Default: 1h
	ExecTimeout time.Duration

	// PostponeInterval is how far postponed requests are rescheduled
	// into the future.
	// Default: 30m
	PostponeInterval time.Duration

	// ArchiveKeepDays is how long archive index rows are retained.
	// Zero keeps them forever.
	ArchiveKeepDays int
}

// Manager owns the maintenance spool: it loads requests from disk,
// assigns due dates, executes due requests, and archives finished ones.
//
// The manager takes an exclusive lock on the spool directory for its
// whole lifetime, so only one manager (agent or CLI invocation) can
// operate on a spool at a time. All methods are safe for concurrent use
// within that one process.
type Manager struct {
	config *Config
	index  *storage.ArchiveIndex
	logger *slog.Logger
	lock   *spoolLock

	mu       sync.Mutex
	requests map[string]*Request
}

// CycleResult summarizes one maintenance cycle.
type CycleResult struct {
	// Executed lists the requests that ran during the cycle.
	Executed []*Request

	// Archived lists the requests moved to the archive.
	Archived []*Request

	// Counts holds the number of spooled requests per state after the
	// cycle, for gauges and status output.
	Counts map[State]int
}

// NewManager creates a manager for the given spool directory, creating
// the spool layout if needed and taking the spool lock. The archive
// index is optional; when nil, archived requests are only moved on
// disk. The caller keeps ownership of the index and closes it after
// the manager.
func NewManager(cfg *Config, index *storage.ArchiveIndex, logger *slog.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("manager config cannot be nil")
	}
	if cfg.SpoolDir == "" {
		return nil, fmt.Errorf("spool directory cannot be empty")
	}

	// Apply defaults
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.ExecTimeout == 0 {
		cfg.ExecTimeout = DefaultExecTimeout
	}
	if cfg.PostponeInterval == 0 {
		cfg.PostponeInterval = DefaultPostponeInterval
	}

	if logger == nil {
		logger = slog.Default()
	}

	for _, dir := range []string{
		filepath.Join(cfg.SpoolDir, requestsDirName),
		filepath.Join(cfg.SpoolDir, archiveDirName),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create spool directory: %w", err)
		}
	}

	lock, err := acquireSpoolLock(filepath.Join(cfg.SpoolDir, lockFileName))
	if err != nil {
		return nil, err
	}

	return &Manager{
		config:   cfg,
		index:    index,
		logger:   logger.With("component", "maintenance.manager"),
		lock:     lock,
		requests: make(map[string]*Request),
	}, nil
}

// Close releases the spool lock.
func (m *Manager) Close() error {
	return m.lock.Release()
}

// requestsDir returns the directory holding active requests.
func (m *Manager) requestsDir() string {
	return filepath.Join(m.config.SpoolDir, requestsDirName)
}

// archiveDir returns the directory holding archived requests.
func (m *Manager) archiveDir() string {
	return filepath.Join(m.config.SpoolDir, archiveDirName)
}

// Scan reloads all requests from the spool. Unreadable requests are
// logged and skipped so one corrupt file does not block maintenance.
func (m *Manager) Scan() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanLocked()
}

func (m *Manager) scanLocked() error {
	entries, err := os.ReadDir(m.requestsDir())
	if err != nil {
		return fmt.Errorf("failed to read spool: %w", err)
	}

	requests := make(map[string]*Request, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		req, err := LoadRequest(filepath.Join(m.requestsDir(), entry.Name()))
		if err != nil {
			m.logger.Warn("skipping unreadable maintenance request",
				"dir", entry.Name(),
				"error", err,
			)
			continue
		}
		requests[req.ID] = req
	}

	m.requests = requests
	return nil
}

// Add files a new request into the spool. Requests whose command
// matches an active spooled request are not duplicated; the existing
// request is returned instead.
func (m *Manager) Add(req *Request) (*Request, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}
	if req.Command == "" {
		return nil, fmt.Errorf("request command cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.requests {
		if existing.Command == req.Command && !existing.State.Terminal() {
			m.logger.Info("maintenance request already spooled",
				"request", existing.ID,
				"command", existing.Command,
			)
			return existing, nil
		}
	}

	req.dir = filepath.Join(m.requestsDir(), req.ID)
	if err := req.Save(); err != nil {
		return nil, err
	}
	m.requests[req.ID] = req

	m.logger.Info("maintenance request added",
		"request", req.ID,
		"command", req.Command,
		"estimate", req.Estimate.String(),
	)

	return req, nil
}

// Get returns the spooled request with the given id.
func (m *Manager) Get(id string) (*Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	return req, ok
}

// Requests returns all spooled requests ordered by due date. Scheduled
// requests sort before unscheduled ones; ties break on the request id.
func (m *Manager) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked()
}

func (m *Manager) sortedLocked() []*Request {
	reqs := make([]*Request, 0, len(m.requests))
	for _, req := range m.requests {
		reqs = append(reqs, req)
	}

	sort.Slice(reqs, func(i, j int) bool {
		a, b := reqs[i], reqs[j]
		switch {
		case !a.NextDue.IsZero() && !b.NextDue.IsZero():
			if !a.NextDue.Equal(b.NextDue) {
				return a.NextDue.Before(b.NextDue)
			}
			return a.ID < b.ID
		case !a.NextDue.IsZero():
			return true
		case !b.NextDue.IsZero():
			return false
		default:
			return a.ID < b.ID
		}
	})

	return reqs
}

// Due returns the requests in the due state, ordered by due date.
func (m *Manager) Due() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dueLocked()
}

func (m *Manager) dueLocked() []*Request {
	var due []*Request
	for _, req := range m.sortedLocked() {
		if req.State == StateDue {
			due = append(due, req)
		}
	}
	return due
}

// CountByState returns the number of spooled requests per state.
func (m *Manager) CountByState() map[State]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countByStateLocked()
}

func (m *Manager) countByStateLocked() map[State]int {
	counts := make(map[State]int)
	for _, req := range m.requests {
		counts[req.State]++
	}
	return counts
}

// Schedule assigns a due date to pending requests that have none yet.
// It returns the number of requests scheduled.
func (m *Manager) Schedule(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scheduleLocked(now)
}

func (m *Manager) scheduleLocked(now time.Time) int {
	scheduled := 0
	for _, req := range m.requests {
		if req.State != StatePending || !req.NextDue.IsZero() {
			continue
		}

		req.UpdateDue(now)
		req.LastScheduledAt = now.UTC()
		if err := req.Save(); err != nil {
			m.logger.Warn("failed to save scheduled request",
				"request", req.ID,
				"error", err,
			)
			continue
		}

		m.logger.Info("maintenance request scheduled",
			"request", req.ID,
			"due", req.NextDue,
		)
		scheduled++
	}
	return scheduled
}

// UpdateStates applies time-dependent transitions to all requests:
// scheduled requests whose due date passed become due and requests over
// the attempt budget are closed with the retrylimit outcome.
func (m *Manager) UpdateStates(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateStatesLocked(now)
}

func (m *Manager) updateStatesLocked(now time.Time) {
	for _, req := range m.requests {
		before := req.State
		after := req.UpdateState(now, m.config.MaxAttempts)
		if after == before {
			continue
		}

		m.logger.Debug("maintenance request state changed",
			"request", req.ID,
			"from", before.String(),
			"to", after.String(),
		)
		if err := req.Save(); err != nil {
			m.logger.Warn("failed to save request state",
				"request", req.ID,
				"error", err,
			)
		}
	}
}

// ExecuteDue runs all due requests in due date order. Execution stops
// early when the context is cancelled. The executed requests are
// returned so callers can inspect outcomes.
func (m *Manager) ExecuteDue(ctx context.Context) ([]*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executeDueLocked(ctx)
}

func (m *Manager) executeDueLocked(ctx context.Context) ([]*Request, error) {
	var executed []*Request
	for _, req := range m.dueLocked() {
		select {
		case <-ctx.Done():
			return executed, ctx.Err()
		default:
		}

		m.executeRequest(ctx, req)
		executed = append(executed, req)
	}
	return executed, nil
}

// executeRequest runs one request and persists its outcome.
func (m *Manager) executeRequest(ctx context.Context, req *Request) {
	m.logger.Info("executing maintenance request",
		"request", req.ID,
		"command", req.Command,
		"attempt", len(req.Attempts)+1,
	)

	req.State = StateRunning
	if err := req.Save(); err != nil {
		m.logger.Error("failed to mark request running",
			"request", req.ID,
			"error", err,
		)
		req.State = StateError
		return
	}

	execCtx, cancel := context.WithTimeout(ctx, m.config.ExecTimeout)
	attempt := req.Run(execCtx)
	cancel()

	// Apply only the attempt cap here. Promoting against the stale due
	// date would send postponed and tempfailed requests straight back
	// to due.
	if m.config.MaxAttempts > 0 && len(req.Attempts) > m.config.MaxAttempts {
		req.State = StateRetryLimit
	}

	if err := req.Save(); err != nil {
		m.logger.Warn("failed to save request after execution",
			"request", req.ID,
			"error", err,
		)
	}

	if req.State == StateSuccess {
		m.logger.Info("maintenance request finished",
			"request", req.ID,
			"returncode", attempt.ReturnCode,
			"duration", attempt.Duration,
		)
	} else {
		m.logger.Warn("maintenance request did not succeed",
			"request", req.ID,
			"state", req.State.String(),
			"returncode", attempt.ReturnCode,
			"duration", attempt.Duration,
			"stderr", truncateOutput(attempt.Stderr, 500),
		)
	}
}

// Postpone reschedules postponed requests into the future and returns
// them to the pending state. It returns the number of requests moved.
func (m *Manager) Postpone(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.postponeLocked(now)
}

func (m *Manager) postponeLocked(now time.Time) int {
	postponed := 0
	for _, req := range m.requests {
		if req.State != StatePostpone {
			continue
		}

		req.State = StatePending
		req.UpdateDue(now.Add(m.config.PostponeInterval))
		if err := req.Save(); err != nil {
			m.logger.Warn("failed to save postponed request",
				"request", req.ID,
				"error", err,
			)
			continue
		}

		m.logger.Info("maintenance request postponed",
			"request", req.ID,
			"due", req.NextDue,
		)
		postponed++
	}
	return postponed
}

// Archive moves finished requests out of the active spool and records
// them in the archive index when one is configured.
func (m *Manager) Archive(ctx context.Context) []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.archiveLocked(ctx)
}

func (m *Manager) archiveLocked(ctx context.Context) []*Request {
	var archived []*Request
	for id, req := range m.requests {
		if !req.State.Terminal() {
			continue
		}

		target := filepath.Join(m.archiveDir(), req.ID)
		if err := os.Rename(req.dir, target); err != nil {
			m.logger.Error("failed to archive maintenance request",
				"request", req.ID,
				"error", err,
			)
			continue
		}
		req.dir = target

		if m.index != nil {
			if err := m.index.Insert(ctx, archiveEntry(req)); err != nil {
				m.logger.Warn("failed to index archived request",
					"request", req.ID,
					"error", err,
				)
			}
		}

		delete(m.requests, id)
		archived = append(archived, req)

		m.logger.Info("maintenance request archived",
			"request", req.ID,
			"state", req.State.String(),
			"attempts", len(req.Attempts),
		)
	}
	return archived
}

// Delete marks a request for removal. The request is archived with the
// deleted outcome on the next cycle.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("no such maintenance request: %s", id)
	}

	req.State = StateDeleted
	if err := req.Save(); err != nil {
		return err
	}

	m.logger.Info("maintenance request marked for deletion", "request", id)
	return nil
}

// RunCycle performs one full maintenance pass: rescan the spool, apply
// state transitions, schedule new requests, execute due ones, push
// postponed requests into the future, and archive finished requests.
func (m *Manager) RunCycle(ctx context.Context) (*CycleResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()

	if err := m.scanLocked(); err != nil {
		return nil, err
	}

	m.updateStatesLocked(now)
	m.scheduleLocked(now)

	executed, execErr := m.executeDueLocked(ctx)

	m.postponeLocked(time.Now().UTC())

	archived := m.archiveLocked(ctx)

	result := &CycleResult{
		Executed: executed,
		Archived: archived,
		Counts:   m.countByStateLocked(),
	}

	m.cleanupIndexLocked(ctx, now)

	return result, execErr
}

// cleanupIndexLocked prunes old archive index rows per ArchiveKeepDays.
func (m *Manager) cleanupIndexLocked(ctx context.Context, now time.Time) {
	if m.index == nil || m.config.ArchiveKeepDays <= 0 {
		return
	}

	cutoff := now.AddDate(0, 0, -m.config.ArchiveKeepDays)
	deleted, err := m.index.Cleanup(ctx, cutoff)
	if err != nil {
		m.logger.Warn("archive index cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		m.logger.Info("archive index cleaned up", "deleted", deleted)
	}
}

// archiveEntry builds the index row for an archived request.
func archiveEntry(req *Request) *storage.ArchiveEntry {
	entry := &storage.ArchiveEntry{
		ID:         req.ID,
		Command:    req.Command,
		Comment:    req.Comment,
		State:      req.State.String(),
		AddedAt:    req.AddedAt,
		ArchivedAt: time.Now().UTC(),
		Attempts:   len(req.Attempts),
	}
	if last := req.LastAttempt(); last != nil {
		entry.LastExit = last.ReturnCode
		entry.Duration = last.Duration
	}
	return entry
}

// truncateOutput shortens captured command output for log records.
func truncateOutput(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
