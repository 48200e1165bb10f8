package history

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_history (
	id               TEXT PRIMARY KEY,
	client_type      TEXT NOT NULL,
	folder_path      TEXT NOT NULL,
	criteria         TEXT NOT NULL DEFAULT 'strict',
	total_emails     INTEGER NOT NULL DEFAULT 0,
	duplicate_groups INTEGER NOT NULL DEFAULT 0,
	duplicate_emails INTEGER NOT NULL DEFAULT 0,
	parse_errors     INTEGER NOT NULL DEFAULT 0,
	timestamp        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS clean_records (
	id               TEXT PRIMARY KEY,
	scan_id          TEXT NOT NULL REFERENCES scan_history(id) ON DELETE CASCADE,
	cleaned_count    INTEGER NOT NULL DEFAULT 0,
	error_count      INTEGER NOT NULL DEFAULT 0,
	selection_method TEXT NOT NULL DEFAULT 'oldest',
	timestamp        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scan_history_timestamp ON scan_history(timestamp);
CREATE INDEX IF NOT EXISTS idx_scan_history_folder ON scan_history(folder_path);
CREATE INDEX IF NOT EXISTS idx_clean_records_scan_id ON clean_records(scan_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
