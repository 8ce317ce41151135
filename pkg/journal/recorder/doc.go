// Package recorder creates build journal records from build results and
// writes them to a storage backend.
//
// # Recording Flow
//
// Records are written asynchronously so a slow disk never delays a build:
//
//  1. The build pipeline resolves roles and merges module definitions
//  2. The rendered output is written (or validated for --check runs)
//  3. RecordBuild() derives a journal record from the build result
//  4. The record is enqueued to a buffered channel (non-blocking)
//  5. A background goroutine drains the channel and writes to storage
//
// # Basic Usage
//
//	// Create build recorder
//	rec := recorder.NewRecorder(store, &recorder.Config{
//	    Enabled:      true,
//	    AsyncBuffer:  100,
//	    WriteTimeout: 5 * time.Second,
//	    HashOutput:   true,
//	})
//	defer rec.Close()
//
//	// Record a build (async)
//	rec.RecordBuild(ctx, &recorder.BuildResult{
//	    Machine:    "web01",
//	    StartedAt:  start,
//	    FinishedAt: time.Now(),
//	    Composite:  composite,
//	    Output:     rendered,
//	    OutputPath: outputPath,
//	})
//
// # Async Recording
//
// The recorder uses a buffered channel and background goroutine:
//
//   - RecordBuild() creates the record and enqueues it (non-blocking)
//   - The background goroutine drains the channel and writes to storage
//   - Graceful shutdown drains the channel before exit (zero data loss)
//   - A full channel drops the record after WriteTimeout rather than
//     blocking the build
//
// # Output Hashing
//
// The rendered build output is hashed using SHA-256:
//
//   - Hash only first 1MB of large outputs (prevents memory exhaustion)
//   - Hashes are hex-encoded for storage
//   - Hashing can be disabled via configuration
//
// # Error Classification
//
// Failed builds carry a classified error type in the record: unknown_role,
// module_load, merge_conflict, or removed_option, falling back to a generic
// error for everything else. Error messages are truncated to MaxErrorLength.
//
// # Thread Safety
//
// The recorder is thread-safe and can be used concurrently:
//
//   - RecordBuild() is safe from multiple goroutines
//   - The background goroutine is the only writer to storage
package recorder
