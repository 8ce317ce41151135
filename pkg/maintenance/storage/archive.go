package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// ArchiveEntry is one row in the archive index: the summary of a
// maintenance request that left the active spool. The full request,
// including attempt transcripts, stays in the archive directory; the
// index only answers list and filter queries without touching it.
type ArchiveEntry struct {
	// ID is the archived request id.
	ID string

	// Command is the shell command the request ran.
	Command string

	// Comment is the operator description.
	Comment string

	// State is the terminal outcome ("success", "error", "retrylimit",
	// "deleted").
	State string

	// AddedAt is when the request entered the spool.
	AddedAt time.Time

	// ArchivedAt is when the request was archived.
	ArchivedAt time.Time

	// Attempts is how many times the command ran.
	Attempts int

	// LastExit is the exit code of the final attempt.
	LastExit int

	// Duration is how long the final attempt took.
	Duration time.Duration
}

// ArchiveIndex is a SQLite summary table over archived maintenance
// requests. It uses a write-ahead log for concurrent read performance
// and periodic checkpointing to bound WAL growth.
type ArchiveIndex struct {
	db                 *sql.DB
	dbPath             string
	checkpointInterval time.Duration
	done               chan struct{}
	mu                 sync.RWMutex
	closeOnce          sync.Once

	insertStmt    *sql.Stmt
	getStmt       *sql.Stmt
	listStmt      *sql.Stmt
	listStateStmt *sql.Stmt
	countStmt     *sql.Stmt
	cleanupStmt   *sql.Stmt
}

// ArchiveIndexConfig configures the archive index.
type ArchiveIndexConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewArchiveIndex opens an archive index with default settings.
func NewArchiveIndex(dbPath string) (*ArchiveIndex, error) {
	return NewArchiveIndexWithConfig(ArchiveIndexConfig{
		DBPath:             dbPath,
		CheckpointInterval: 5 * time.Minute,
		BusyTimeout:        5 * time.Second,
	})
}

// NewArchiveIndexWithConfig opens an archive index with custom
// configuration.
func NewArchiveIndexWithConfig(cfg ArchiveIndexConfig) (*ArchiveIndex, error) {
	// Apply defaults
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	// Open database with WAL mode and busy timeout
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	index := &ArchiveIndex{
		db:                 db,
		dbPath:             cfg.DBPath,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if err := index.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := index.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	// Start background checkpoint goroutine
	go index.checkpointLoop()

	return index, nil
}

// initSchema creates the database schema if it doesn't exist.
func (a *ArchiveIndex) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS archived_requests (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		comment TEXT,
		state TEXT NOT NULL,
		added_at INTEGER NOT NULL,
		archived_at INTEGER NOT NULL,
		attempts INTEGER NOT NULL,
		last_exit INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_archived_at ON archived_requests(archived_at);
	CREATE INDEX IF NOT EXISTS idx_state ON archived_requests(state);
	`

	_, err := a.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (a *ArchiveIndex) prepareStatements() error {
	var err error

	a.insertStmt, err = a.db.Prepare(`
		INSERT INTO archived_requests (id, command, comment, state, added_at, archived_at, attempts, last_exit, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			state = excluded.state,
			archived_at = excluded.archived_at,
			attempts = excluded.attempts,
			last_exit = excluded.last_exit,
			duration_ms = excluded.duration_ms
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	a.getStmt, err = a.db.Prepare(`
		SELECT id, command, comment, state, added_at, archived_at, attempts, last_exit, duration_ms
		FROM archived_requests
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	a.listStmt, err = a.db.Prepare(`
		SELECT id, command, comment, state, added_at, archived_at, attempts, last_exit, duration_ms
		FROM archived_requests
		ORDER BY archived_at DESC, id
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	a.listStateStmt, err = a.db.Prepare(`
		SELECT id, command, comment, state, added_at, archived_at, attempts, last_exit, duration_ms
		FROM archived_requests
		WHERE state = ?
		ORDER BY archived_at DESC, id
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list by state statement: %w", err)
	}

	a.countStmt, err = a.db.Prepare(`
		SELECT COUNT(*) FROM archived_requests
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare count statement: %w", err)
	}

	a.cleanupStmt, err = a.db.Prepare(`
		DELETE FROM archived_requests
		WHERE archived_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cleanup statement: %w", err)
	}

	return nil
}

// Insert records an archived request in the index. Re-inserting the
// same id updates the existing row.
func (a *ArchiveIndex) Insert(ctx context.Context, entry *ArchiveEntry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if entry.ID == "" {
		return fmt.Errorf("entry id cannot be empty")
	}
	if entry.State == "" {
		return fmt.Errorf("entry state cannot be empty")
	}

	// Fill timestamps
	now := time.Now()
	if entry.AddedAt.IsZero() {
		entry.AddedAt = now
	}
	if entry.ArchivedAt.IsZero() {
		entry.ArchivedAt = now
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	_, err := a.insertStmt.ExecContext(ctx,
		entry.ID,
		entry.Command,
		entry.Comment,
		entry.State,
		entry.AddedAt.Unix(),
		entry.ArchivedAt.Unix(),
		entry.Attempts,
		entry.LastExit,
		entry.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert archive entry: %w", err)
	}

	return nil
}

// Get retrieves an archived request summary by id. It returns nil
// without an error when the id is not indexed.
func (a *ArchiveIndex) Get(ctx context.Context, id string) (*ArchiveEntry, error) {
	if id == "" {
		return nil, fmt.Errorf("id cannot be empty")
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	entry, err := scanArchiveEntry(a.getStmt.QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load archive entry: %w", err)
	}

	return entry, nil
}

// List returns archived request summaries, newest first. An empty
// state lists all outcomes. A limit of zero or less means no limit.
func (a *ArchiveIndex) List(ctx context.Context, state string, limit int) ([]*ArchiveEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT disables the cap
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	var rows *sql.Rows
	var err error
	if state == "" {
		rows, err = a.listStmt.QueryContext(ctx, limit)
	} else {
		rows, err = a.listStateStmt.QueryContext(ctx, state, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list archive entries: %w", err)
	}
	defer rows.Close()

	var entries []*ArchiveEntry
	for rows.Next() {
		entry, err := scanArchiveEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// Count returns the number of indexed archive entries.
func (a *ArchiveIndex) Count(ctx context.Context) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var count int
	if err := a.countStmt.QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count archive entries: %w", err)
	}

	return count, nil
}

// Cleanup removes index rows archived before the cutoff and returns
// how many were deleted. The archived request directories are not
// touched.
func (a *ArchiveIndex) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	result, err := a.cleanupStmt.ExecContext(ctx, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(deleted), nil
}

// Close releases any resources held by the index.
// Close is idempotent and safe to call multiple times.
func (a *ArchiveIndex) Close() error {
	var closeErr error

	a.closeOnce.Do(func() {
		// Signal checkpoint goroutine to stop
		close(a.done)

		for _, stmt := range []*sql.Stmt{
			a.insertStmt,
			a.getStmt,
			a.listStmt,
			a.listStateStmt,
			a.countStmt,
			a.cleanupStmt,
		} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if a.db != nil {
			// Run final checkpoint
			_, _ = a.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = a.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (a *ArchiveIndex) checkpointLoop() {
	ticker := time.NewTicker(a.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = a.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-a.done:
			return
		}
	}
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanArchiveEntry reads one archive entry from a row.
func scanArchiveEntry(row rowScanner) (*ArchiveEntry, error) {
	var (
		entry      ArchiveEntry
		comment    sql.NullString
		addedAt    int64
		archivedAt int64
		durationMS int64
	)

	err := row.Scan(
		&entry.ID,
		&entry.Command,
		&comment,
		&entry.State,
		&addedAt,
		&archivedAt,
		&entry.Attempts,
		&entry.LastExit,
		&durationMS,
	)
	if err != nil {
		return nil, err
	}

	entry.Comment = comment.String
	entry.AddedAt = time.Unix(addedAt, 0)
	entry.ArchivedAt = time.Unix(archivedAt, 0)
	entry.Duration = time.Duration(durationMS) * time.Millisecond

	return &entry, nil
}
