package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"caldera-hq/basalt/pkg/compat"
	"caldera-hq/basalt/pkg/journal"
	"caldera-hq/basalt/pkg/modules"
)

// Build statuses recorded in the journal.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusCheck   = "check"
)

// Config contains configuration for the build recorder.
type Config struct {
	// Enabled enables journal recording.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 100
	AsyncBuffer int

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// HashOutput enables hashing of the rendered build output.
	// Default: true
	HashOutput bool

	// MaxErrorLength is the maximum length for recorded error messages
	// before truncation.
	// Default: 500
	MaxErrorLength int
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		AsyncBuffer:    100,
		WriteTimeout:   5 * time.Second,
		HashOutput:     true,
		MaxErrorLength: 500,
	}
}

// BuildResult carries the outcome of one build into the recorder.
type BuildResult struct {
	// Machine is the machine the build ran for.
	Machine string

	// Environment is the deployment environment.
	Environment string

	// StartedAt and FinishedAt bound the build.
	StartedAt  time.Time
	FinishedAt time.Time

	// Composite is the merged result. Nil when the build failed before
	// the merge completed.
	Composite *modules.Composite

	// Output is the rendered configuration document. Hashed when the
	// recorder is configured to do so.
	Output []byte

	// OutputPath is where the output was written, empty for check runs.
	OutputPath string

	// Check marks a validation-only run that wrote no output.
	Check bool

	// Err is the build error, nil on success.
	Err error
}

// Recorder records build journal entries. Records are written
// asynchronously so a slow storage backend never delays a build.
type Recorder struct {
	storage    journal.Storage
	config     *Config
	recordChan chan *journal.BuildRecord
	wg         sync.WaitGroup
	done       chan struct{}
	logger     *slog.Logger
}

// NewRecorder creates a new build recorder with the provided storage backend
// and configuration.
func NewRecorder(storage journal.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *journal.BuildRecord, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "journal.recorder"),
	}

	// Start background worker to drain channel
	r.wg.Add(1)
	go r.worker()

	r.logger.Debug("build recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
		"hash_output", config.HashOutput,
	)

	return r
}

// RecordBuild creates a journal record from a build result and enqueues it
// for async writing to storage.
//
// This method returns immediately and does not block on storage writes.
func (r *Recorder) RecordBuild(ctx context.Context, result *BuildResult) error {
	if !r.config.Enabled {
		return nil
	}

	record := r.createBuildRecord(result)

	// Enqueue for async writing
	select {
	case r.recordChan <- record:
		r.logger.Debug("journal record enqueued",
			"record_id", record.ID,
			"machine", record.Machine,
			"status", record.Status,
		)
	case <-time.After(r.config.WriteTimeout):
		r.logger.Error("journal channel full, dropping record",
			"record_id", record.ID,
			"machine", record.Machine,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return journal.NewRecorderError(record.ID, context.DeadlineExceeded)
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping record",
			"record_id", record.ID,
			"machine", record.Machine,
		)
		return journal.NewRecorderError(record.ID, context.Canceled)
	}

	return nil
}

// Close gracefully shuts down the recorder by draining the async channel and
// waiting for all pending writes to complete.
func (r *Recorder) Close() error {
	r.logger.Debug("shutting down build recorder")

	// Signal shutdown
	close(r.done)

	// Wait for worker to finish draining channel
	r.wg.Wait()

	r.logger.Debug("build recorder shut down complete")
	return nil
}

// worker is the background goroutine that drains the record channel and
// writes records to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			// Drain remaining records from channel before exit
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					// Channel is empty, we can exit
					return
				}
			}
		}
	}
}

// writeRecord writes a single journal record to storage.
func (r *Recorder) writeRecord(record *journal.BuildRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	err := r.storage.Store(ctx, record)
	if err != nil {
		r.logger.Error("failed to store journal record",
			"record_id", record.ID,
			"machine", record.Machine,
			"error", err,
		)
		return
	}

	duration := time.Since(start)

	r.logger.Info("build recorded",
		"record_id", record.ID,
		"machine", record.Machine,
		"status", record.Status,
		"option_count", record.OptionCount,
		"duration_ms", duration.Milliseconds(),
	)

	// Warn if write was slow
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow journal write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}

// createBuildRecord creates a journal record from a build result.
func (r *Recorder) createBuildRecord(result *BuildResult) *journal.BuildRecord {
	record := &journal.BuildRecord{
		ID:      uuid.New().String(),
		Machine: result.Machine,

		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		RecordedAt: time.Now(),

		Environment: result.Environment,
		OutputPath:  result.OutputPath,
		Duration:    result.FinishedAt.Sub(result.StartedAt),
	}

	// Derive status
	switch {
	case result.Err != nil:
		record.Status = StatusError
	case result.Check:
		record.Status = StatusCheck
	default:
		record.Status = StatusSuccess
	}

	// Extract composite data when the build got that far
	if result.Composite != nil {
		record.CatalogVersion = result.Composite.CatalogVersion()
		record.Roles = result.Composite.Roles()
		record.OptionCount = result.Composite.Len()
		record.ModuleCount = countModules(result.Composite)
		record.Renames = convertRenames(result.Composite.Renames())
	}

	// Hash rendered output if configured
	if r.config.HashOutput && len(result.Output) > 0 {
		record.OutputHash = HashContent(result.Output)
	}

	// Extract error info
	if result.Err != nil {
		record.Error = truncateString(result.Err.Error(), r.config.MaxErrorLength)
		record.ErrorType = classifyError(result.Err)
	}

	return record
}

// countModules counts the distinct modules that contributed a winning or
// concatenated definition to the composite.
func countModules(composite *modules.Composite) int {
	seen := make(map[string]bool)
	for _, path := range composite.Paths() {
		source, ok := composite.Source(path)
		if !ok || source.Module == "" {
			continue
		}
		seen[source.Module] = true
	}
	return len(seen)
}

// convertRenames converts resolution rename events into journal records.
func convertRenames(events []modules.RenameEvent) []journal.RenameRecord {
	if len(events) == 0 {
		return nil
	}
	records := make([]journal.RenameRecord, 0, len(events))
	for _, event := range events {
		records = append(records, journal.RenameRecord{
			From:  event.From,
			To:    event.To,
			Since: event.Since,
		})
	}
	return records
}

// classifyError classifies a build error by its configuration error type.
func classifyError(err error) string {
	var unknownRole *modules.UnknownRoleError
	var moduleLoad *modules.ModuleLoadError
	var mergeConflict *modules.MergeConflictError
	var removed *compat.RemovedOptionError

	switch {
	case errors.As(err, &unknownRole):
		return "unknown_role"
	case errors.As(err, &moduleLoad):
		return "module_load"
	case errors.As(err, &mergeConflict):
		return "merge_conflict"
	case errors.As(err, &removed):
		return "removed_option"
	default:
		return "error"
	}
}

// truncateString truncates a string to the specified maximum length.
// If the string is longer than maxLen, it is truncated and "..." is appended.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	// Truncate and append ellipsis
	if maxLen <= 3 {
		return s[:maxLen]
	}

	return s[:maxLen-3] + "..."
}
