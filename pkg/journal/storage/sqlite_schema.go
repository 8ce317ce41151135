package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the journal database schema.
const Schema = `
-- Build records table
CREATE TABLE IF NOT EXISTS builds (
    id TEXT PRIMARY KEY,
    machine TEXT NOT NULL,

    -- Timestamps
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,
    recorded_at TIMESTAMP NOT NULL,

    -- Build inputs
    environment TEXT,
    catalog_version TEXT,
    roles TEXT,

    -- Build result
    status TEXT NOT NULL,
    option_count INTEGER,
    module_count INTEGER,
    output_hash TEXT,
    output_path TEXT,

    -- Compatibility rewrites
    renames TEXT,

    -- Error info
    error TEXT,
    error_type TEXT,

    -- Timing
    duration INTEGER
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
CREATE INDEX IF NOT EXISTS idx_builds_machine ON builds(machine);
CREATE INDEX IF NOT EXISTS idx_builds_environment ON builds(environment);
CREATE INDEX IF NOT EXISTS idx_builds_status ON builds(status);
CREATE INDEX IF NOT EXISTS idx_builds_option_count ON builds(option_count);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
