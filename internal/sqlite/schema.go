package sqlite

// Schema DDL for the record table. entered_at and updated_at hold UTC
// timestamps in timeLayout so that ordering by the text column is ordering
// by time.
const (
	createRecords = `CREATE TABLE IF NOT EXISTS records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entered_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    schema_version TEXT NOT NULL,
    data TEXT NOT NULL,
    weather TEXT,
    light TEXT,
    occurred_from TEXT,
    occurred_to TEXT,
    latitude REAL,
    longitude REAL,
    updated_at TEXT
);`

	idxRecordsEnteredAt = `CREATE INDEX IF NOT EXISTS idx_records_entered_at ON records(entered_at);`
)

// schemaDDL lists the statements run on every Attach. They are idempotent
// so an existing database keeps its rows.
var schemaDDL = []string{
	createRecords,
	idxRecordsEnteredAt,
}

// pragmas tune the read-write connection.
const pragmas = `
	PRAGMA journal_mode = WAL;
	PRAGMA busy_timeout = 5000;
	PRAGMA synchronous = NORMAL;
`
