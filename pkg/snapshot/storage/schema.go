package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the snapshot database schema.
//
// Timestamps are stored as Unix nanoseconds so both drivers read them back
// identically. A NULL value stands for NaN, which SQLite cannot store.
const Schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    taken_at INTEGER NOT NULL,
    observation_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON snapshots(taken_at);

CREATE TABLE IF NOT EXISTS observations (
    snapshot_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    category TEXT NOT NULL,
    name TEXT NOT NULL,
    value REAL,
    labels TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, seq)
);
`

// InsertSchemaVersion records the schema version if not already present.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

// GetSchemaVersion reads the newest applied schema version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version`
