// Package history persists scan and clean summaries to a local SQLite
// database. The detection engine only emits the summary fields; nothing
// in scanning or cleaning depends on this store being present.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/mailsweep/internal/model"
)

// ScanRecord is one persisted scan summary.
type ScanRecord struct {
	ID              string    `db:"id"`
	ClientType      string    `db:"client_type"`
	FolderPath      string    `db:"folder_path"`
	Criteria        string    `db:"criteria"`
	TotalEmails     int       `db:"total_emails"`
	DuplicateGroups int       `db:"duplicate_groups"`
	DuplicateEmails int       `db:"duplicate_emails"`
	ParseErrors     int       `db:"parse_errors"`
	Timestamp       time.Time `db:"timestamp"`
}

// CleanRecord is one persisted cleaning-operation summary.
type CleanRecord struct {
	ID              string    `db:"id"`
	ScanID          string    `db:"scan_id"`
	CleanedCount    int       `db:"cleaned_count"`
	ErrorCount      int       `db:"error_count"`
	SelectionMethod string    `db:"selection_method"`
	Timestamp       time.Time `db:"timestamp"`
}

// Store wraps the scan-history SQLite database.
type Store struct {
	db *sqlx.DB
}

// NewStore opens (or creates) a SQLite database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Pragmas are per-connection and :memory: databases are per-connection;
	// a single pooled connection keeps both consistent.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// RecordScan persists the summary of a completed scan and returns the
// record ID for linking subsequent clean records.
func (s *Store) RecordScan(ctx context.Context, scan *model.ScanResult) (string, error) {
	id := uuid.New().String()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_history (
			id, client_type, folder_path, criteria,
			total_emails, duplicate_groups, duplicate_emails, parse_errors,
			timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(scan.Folder.Flavor), scan.Folder.Path, string(scan.Criterion),
		scan.TotalMessages, len(scan.Groups), scan.DuplicateMessages(), scan.ParseErrors,
		scan.FinishedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("recording scan of %s: %w", scan.Folder.Path, err)
	}

	return id, nil
}

// RecordClean persists the summary of a cleaning operation linked to a
// previously recorded scan.
func (s *Store) RecordClean(
	ctx context.Context,
	scanID string,
	clean *model.CleanResult,
) (string, error) {
	id := uuid.New().String()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clean_records (
			id, scan_id, cleaned_count, error_count, selection_method, timestamp
		) VALUES (?, ?, ?, ?, ?, ?)`,
		id, scanID, clean.CleanedCount, clean.ErrorCount, clean.SelectionMethod,
		time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("recording clean for scan %s: %w", scanID, err)
	}

	return id, nil
}

// RecentScans retrieves the newest scan records, most recent first.
func (s *Store) RecentScans(ctx context.Context, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []ScanRecord
	err := s.db.SelectContext(ctx, &records,
		"SELECT * FROM scan_history ORDER BY timestamp DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying scan history: %w", err)
	}

	return records, nil
}

// CleansForScan retrieves the clean records linked to one scan, oldest
// first.
func (s *Store) CleansForScan(ctx context.Context, scanID string) ([]CleanRecord, error) {
	var records []CleanRecord
	err := s.db.SelectContext(ctx, &records,
		"SELECT * FROM clean_records WHERE scan_id = ? ORDER BY timestamp", scanID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying clean records for scan %s: %w", scanID, err)
	}

	return records, nil
}

// GetSetting reads a user setting, returning fallback when unset.
func (s *Store) GetSetting(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting writes a user setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value,
	)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}
