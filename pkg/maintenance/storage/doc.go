// Package storage provides the archive index for finished maintenance
// requests.
//
// The index is a small SQLite summary table: one row per archived
// request with its command, terminal state, attempt count, and final
// exit code. Listing and filtering archived requests goes through the
// index; the full request transcripts stay in the archive directory on
// disk.
//
// # Basic Usage
//
//	index, err := storage.NewArchiveIndex("/var/spool/basalt/maintenance/archive.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer index.Close()
//
//	// List recent failures
//	entries, err := index.List(ctx, "error", 20)
//
// The database uses WAL mode with periodic checkpointing and a single
// writer connection.
package storage
