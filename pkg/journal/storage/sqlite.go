package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"caldera-hq/basalt/pkg/journal"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "/var/lib/basalt/journal.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "journal.storage.sqlite")

	// Open database connection
	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, journal.NewStorageError("sqlite", "open", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	// Initialize database
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite journal storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	// Enable WAL mode if configured
	if s.config.WALMode {
		_, err := s.db.Exec("PRAGMA journal_mode=WAL;")
		if err != nil {
			return journal.NewStorageError("sqlite", "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	// Set busy timeout
	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs))
	if err != nil {
		return journal.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	// Create schema
	_, err = s.db.Exec(Schema)
	if err != nil {
		return journal.NewStorageError("sqlite", "create_schema", err)
	}
	s.logger.Debug("database schema created")

	// Insert schema version
	_, err = s.db.Exec(InsertSchemaVersion, SchemaVersion)
	if err != nil {
		return journal.NewStorageError("sqlite", "insert_schema_version", err)
	}

	// Verify schema version
	var version int
	err = s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return journal.NewStorageError("sqlite", "get_schema_version", err)
	}

	if version != SchemaVersion {
		return journal.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)

	return nil
}

// Store persists a build record to the database.
func (s *SQLiteStorage) Store(ctx context.Context, record *journal.BuildRecord) error {
	// Marshal JSON fields
	roles, _ := json.Marshal(record.Roles)
	renames, _ := json.Marshal(record.Renames)

	query := `
		INSERT INTO builds (
			id, machine,
			started_at, finished_at, recorded_at,
			environment, catalog_version, roles,
			status, option_count, module_count, output_hash, output_path,
			renames,
			error, error_type,
			duration
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
	`

	// Convert empty strings to NULL for optional fields
	var errorVal, errorTypeVal interface{}
	if record.Error == "" {
		errorVal = nil
	} else {
		errorVal = record.Error
	}
	if record.ErrorType == "" {
		errorTypeVal = nil
	} else {
		errorTypeVal = record.ErrorType
	}

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.Machine,
		record.StartedAt, record.FinishedAt, record.RecordedAt,
		record.Environment, record.CatalogVersion, string(roles),
		record.Status, record.OptionCount, record.ModuleCount, record.OutputHash, record.OutputPath,
		string(renames),
		errorVal, errorTypeVal,
		record.Duration.Milliseconds(),
	)

	if err != nil {
		return journal.NewStorageError("sqlite", "store", err)
	}

	return nil
}

// Query retrieves build records matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, query *journal.Query) ([]*journal.BuildRecord, error) {
	// Build WHERE clause and collect args
	whereClause, args := s.buildWhereClause(query)

	// Build complete query
	sqlQuery := "SELECT * FROM builds"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	// Add sorting
	sortBy := "started_at"
	sortOrder := "DESC"
	if query.SortBy != "" {
		sortBy = query.SortBy
	}
	if query.SortOrder != "" {
		sortOrder = query.SortOrder
	}
	sqlQuery += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	// Add pagination
	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)

	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	// Execute query
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, journal.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	// Scan results
	records := []*journal.BuildRecord{}
	for rows.Next() {
		record, err := s.scanRow(rows)
		if err != nil {
			return nil, journal.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, journal.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// QueryStream returns a channel of build records for memory-efficient streaming.
// Use this for large result sets to avoid loading everything in memory.
// The channels will be closed when the query completes or errors.
func (s *SQLiteStorage) QueryStream(ctx context.Context, query *journal.Query) (<-chan *journal.BuildRecord, <-chan error, error) {
	recordsCh := make(chan *journal.BuildRecord, 100) // Buffer 100 records
	errCh := make(chan error, 1)

	// Build WHERE clause and collect args
	whereClause, args := s.buildWhereClause(query)

	// Build complete query
	sqlQuery := "SELECT * FROM builds"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	// Add sorting
	sortBy := "started_at"
	sortOrder := "DESC"
	if query.SortBy != "" {
		sortBy = query.SortBy
	}
	if query.SortOrder != "" {
		sortOrder = query.SortOrder
	}
	sqlQuery += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	// Add pagination
	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)

	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	// Start goroutine to stream results
	go func() {
		defer close(recordsCh)
		defer close(errCh)

		// Execute query
		rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- journal.NewStorageError("sqlite", "query_stream", err)
			return
		}
		defer rows.Close()

		// Stream rows
		for rows.Next() {
			// Check for context cancellation
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			record, err := s.scanRow(rows)
			if err != nil {
				errCh <- journal.NewStorageError("sqlite", "scan", err)
				return
			}

			// Send record to channel (also check for context cancellation)
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
				// Record sent successfully
			}
		}

		// Check for any row iteration errors
		if err := rows.Err(); err != nil {
			errCh <- journal.NewStorageError("sqlite", "query_stream", err)
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of build records matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *journal.Query) (int64, error) {
	// Build WHERE clause and collect args
	whereClause, args := s.buildWhereClause(query)

	// Build count query
	sqlQuery := "SELECT COUNT(*) FROM builds"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	// Execute query
	var count int64
	err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count)
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// Delete removes build records matching the query filters.
// Returns the number of records deleted.
func (s *SQLiteStorage) Delete(ctx context.Context, query *journal.Query) (int64, error) {
	// Build WHERE clause and collect args
	whereClause, args := s.buildWhereClause(query)

	// Build delete query
	sqlQuery := "DELETE FROM builds"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	// Execute query
	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "delete", err)
	}

	// Get number of rows deleted
	count, err := result.RowsAffected()
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "delete", err)
	}

	return count, nil
}

// Ping verifies the database connection is alive.
// Used as an agent readiness check.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return journal.NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return journal.NewStorageError("sqlite", "close", err)
	}

	s.logger.Info("SQLite journal storage closed")
	return nil
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the WHERE clause (without "WHERE" keyword) and the query arguments.
func (s *SQLiteStorage) buildWhereClause(query *journal.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	// Time range filter
	if query.StartTime != nil {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, *query.StartTime)
	}
	if query.EndTime != nil {
		conditions = append(conditions, "started_at <= ?")
		args = append(args, *query.EndTime)
	}

	// Machine/environment filter
	if query.Machine != "" {
		conditions = append(conditions, "machine = ?")
		args = append(args, query.Machine)
	}
	if query.Environment != "" {
		conditions = append(conditions, "environment = ?")
		args = append(args, query.Environment)
	}

	// Role filter matches against the JSON-encoded roles list
	if query.Role != "" {
		conditions = append(conditions, "roles LIKE ?")
		args = append(args, "%\""+query.Role+"\"%")
	}

	// Status filter
	if query.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, query.Status)
	}

	// Option count thresholds
	if query.MinOptions != nil {
		conditions = append(conditions, "option_count >= ?")
		args = append(args, *query.MinOptions)
	}
	if query.MaxOptions != nil {
		conditions = append(conditions, "option_count <= ?")
		args = append(args, *query.MaxOptions)
	}

	// Join conditions with AND
	whereClause := ""
	if len(conditions) > 0 {
		for i, condition := range conditions {
			if i > 0 {
				whereClause += " AND "
			}
			whereClause += condition
		}
	}

	return whereClause, args
}

// scanRow scans a database row into a BuildRecord.
func (s *SQLiteStorage) scanRow(row *sql.Rows) (*journal.BuildRecord, error) {
	var record journal.BuildRecord
	var roles, renames string
	var environment, catalogVersion, outputHash, outputPath sql.NullString
	var durationMs int64
	var errorVal, errorTypeVal sql.NullString

	err := row.Scan(
		&record.ID, &record.Machine,
		&record.StartedAt, &record.FinishedAt, &record.RecordedAt,
		&environment, &catalogVersion, &roles,
		&record.Status, &record.OptionCount, &record.ModuleCount, &outputHash, &outputPath,
		&renames,
		&errorVal, &errorTypeVal,
		&durationMs,
	)
	if err != nil {
		return nil, err
	}

	// Convert NULL strings back to empty strings
	record.Environment = environment.String
	record.CatalogVersion = catalogVersion.String
	record.OutputHash = outputHash.String
	record.OutputPath = outputPath.String
	if errorVal.Valid {
		record.Error = errorVal.String
	}
	if errorTypeVal.Valid {
		record.ErrorType = errorTypeVal.String
	}

	// Unmarshal JSON fields
	if roles != "" {
		json.Unmarshal([]byte(roles), &record.Roles)
	}
	if renames != "" {
		json.Unmarshal([]byte(renames), &record.Renames)
	}

	// Convert duration from milliseconds
	record.Duration = time.Duration(durationMs) * time.Millisecond

	return &record, nil
}
