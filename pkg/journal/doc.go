// Package journal provides build journal generation and storage for
// configuration builds. It records every build as an immutable record for
// audit, troubleshooting, and fleet-wide reporting.
//
// # Architecture
//
// The journal system consists of three layers:
//
//  1. Build Recorder - Creates journal records from build results
//  2. Storage Backend - Persists records (SQLite, memory)
//  3. Query Engine - Retrieves and filters records
//
// # Build Records
//
// Each build record captures:
//   - Build inputs (machine, environment, active roles, catalog version)
//   - Build result (status, resolved option count, module count)
//   - Compatibility rewrites (renamed options followed during resolution)
//   - A SHA-256 hash of the rendered output for later verification
//   - Timestamps (started, finished, recorded)
//   - Error information (if the build failed)
//
// # Recording Flow
//
// Records are written asynchronously so a slow disk never delays a build:
//
//	Resolve + Merge → Composite
//	     ↓
//	Build Recorder (async)
//	     ↓
//	Build Journal Record
//	     ↓
//	Hash Rendered Output
//	     ↓
//	Storage Backend (SQLite)
//	     ↓
//	Write to Database (WAL mode)
//
// # Basic Usage
//
//	// Initialize storage backend
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path: "/var/lib/basalt/journal.db",
//	    WALMode: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	// Create build recorder
//	rec := recorder.NewRecorder(store, &recorder.Config{
//	    Enabled:     true,
//	    AsyncBuffer: 100,
//	    HashOutput:  true,
//	})
//	defer rec.Close()
//
//	// Record a build (async, non-blocking)
//	rec.RecordBuild(ctx, &recorder.BuildResult{
//	    Machine:   "web01",
//	    Composite: composite,
//	    Status:    recorder.StatusSuccess,
//	    Duration:  elapsed,
//	})
//
// # Querying the Journal
//
//	// Build query
//	query := &journal.Query{
//	    StartTime: &startTime,
//	    Machine:   "web01",
//	    Status:    "error",
//	    Limit:     100,
//	}
//
//	// Execute query
//	records, err := store.Query(ctx, query)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Export to JSON
//	exporter := export.NewJSONExporter(true) // pretty-print
//	exporter.Export(ctx, records, os.Stdout)
//
// # Thread Safety
//
// All journal types are safe for concurrent use:
//   - Recorder: Thread-safe async channel
//   - Storage: Thread-safe with connection pooling
//   - Query: Stateless, can be executed concurrently
//
// # Storage Backends
//
// The journal supports multiple storage backends via the Storage interface:
//   - SQLite: Single-node, embedded database (the default)
//   - Memory: Bounded in-memory ring, for tests and ephemeral machines
//
// Custom storage backends can be implemented by satisfying the Storage interface.
package journal
