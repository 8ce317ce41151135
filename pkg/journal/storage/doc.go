// Package storage provides storage backends for build journal records.
//
// # Storage Backends
//
// The storage package defines implementations of the journal.Storage
// interface:
//
//   - SQLite: Embedded database for durable per-machine journals (the default)
//   - Memory: Bounded in-memory storage for tests and ephemeral machines
//
// # SQLite Backend
//
// The SQLite backend provides durable storage with:
//
//   - WAL mode for concurrent reads/writes
//   - Indexes on frequently queried fields
//   - Connection pooling for concurrent access
//   - Busy timeout for handling locks
//
// # Basic Usage
//
//	// Create SQLite storage
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path: "/var/lib/basalt/journal.db",
//	    MaxOpenConns: 10,
//	    MaxIdleConns: 5,
//	    WALMode: true,
//	    BusyTimeout: 5 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	// Store a build record
//	err = store.Store(ctx, record)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Query build records
//	query := &journal.Query{
//	    StartTime: &startTime,
//	    EndTime: &endTime,
//	    Machine: "web01",
//	    Limit: 100,
//	}
//	records, err := store.Query(ctx, query)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Memory Backend
//
// The memory backend keeps at most MaxRecords records and evicts the oldest
// first. It backs journal queries on machines that deliberately keep no
// persistent state.
//
// # Thread Safety
//
// All storage backends are thread-safe and support concurrent access:
//
//   - Store() can be called concurrently from multiple goroutines
//   - Query() can be called concurrently with Store()
//   - WAL mode enables concurrent readers and writers
//
// # Schema Migration
//
// The SQLite storage automatically initializes the database schema on first use.
// Schema version is tracked in the schema_version table for future migrations.
package storage
