/*
Package sqlite provides a SQLite-backed implementation of payroll.Store.

PURPOSE:
  Keeps the workbook in a single local database file. The layout mirrors a
  key-value store: the latest weeks, title and day list live under fixed
  keys, and every save also appends a full copy to the revisions table.

KEY TABLES:
  kv:        key -> value (latest workbook pieces)
  revisions: append-only history of saved workbooks

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements on revisions
  - Restoring an old revision saves it again as a new revision

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Writes of the kv rows and the
  revision row happen in one SQL transaction.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./shiftpay.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - payroll/store.go: Interface definition
  - payroll/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/shift-payroll/payroll"
)

// Store implements payroll.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ payroll.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Revisions (append-only)
	CREATE TABLE IF NOT EXISTS revisions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		weeks INTEGER NOT NULL,
		reason TEXT,
		workbook_json TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_revisions_saved_at
		ON revisions(saved_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// KEY-VALUE
// =============================================================================

// Get returns the raw value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(ctx, key)
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func setKey(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, key, value string) error {
	query := `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// WORKBOOK (payroll.Store interface)
// =============================================================================

// LoadWorkbook assembles the workbook from its keys.
func (s *Store) LoadWorkbook(ctx context.Context) (*payroll.Workbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	weeksJSON, ok, err := s.get(ctx, payroll.KeySchedule)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, payroll.ErrWorkbookNotFound
	}

	wb := &payroll.Workbook{Title: payroll.DefaultTitle}
	if err := json.Unmarshal([]byte(weeksJSON), &wb.Weeks); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", payroll.KeySchedule, err)
	}
	if title, ok, err := s.get(ctx, payroll.KeyTitle); err != nil {
		return nil, err
	} else if ok {
		wb.Title = title
	}
	if daysJSON, ok, err := s.get(ctx, payroll.KeyDays); err != nil {
		return nil, err
	} else if ok {
		if err := json.Unmarshal([]byte(daysJSON), &wb.Days); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", payroll.KeyDays, err)
		}
	}
	return wb, nil
}

// SaveWorkbook writes the keys and appends a revision atomically.
func (s *Store) SaveWorkbook(ctx context.Context, wb *payroll.Workbook, reason string) (payroll.Revision, error) {
	weeksJSON, err := json.Marshal(wb.Weeks)
	if err != nil {
		return payroll.Revision{}, fmt.Errorf("failed to encode weeks: %w", err)
	}
	daysJSON, err := json.Marshal(wb.Days)
	if err != nil {
		return payroll.Revision{}, fmt.Errorf("failed to encode days: %w", err)
	}
	fullJSON, err := json.Marshal(wb)
	if err != nil {
		return payroll.Revision{}, fmt.Errorf("failed to encode workbook: %w", err)
	}

	rev := payroll.Revision{
		ID:      payroll.RevisionID(uuid.NewString()),
		SavedAt: time.Now().UTC(),
		Title:   wb.Title,
		Weeks:   len(wb.Weeks),
		Reason:  reason,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return payroll.Revision{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, kv := range [][2]string{
		{payroll.KeySchedule, string(weeksJSON)},
		{payroll.KeyTitle, wb.Title},
		{payroll.KeyDays, string(daysJSON)},
	} {
		if err := setKey(ctx, sqlTx, kv[0], kv[1]); err != nil {
			return payroll.Revision{}, err
		}
	}

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO revisions (id, title, weeks, reason, workbook_json, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rev.ID, rev.Title, rev.Weeks, nullString(reason), string(fullJSON), rev.SavedAt.Format(time.RFC3339Nano))
	if err != nil {
		return payroll.Revision{}, fmt.Errorf("failed to append revision: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return payroll.Revision{}, fmt.Errorf("failed to commit: %w", err)
	}
	return rev, nil
}

// Revisions returns the newest revisions first. limit <= 0 returns all.
func (s *Store) Revisions(ctx context.Context, limit int) ([]payroll.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, title, weeks, reason, saved_at FROM revisions ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query revisions: %w", err)
	}
	defer rows.Close()

	var out []payroll.Revision
	for rows.Next() {
		var (
			rev     payroll.Revision
			reason  sql.NullString
			savedAt string
		)
		if err := rows.Scan(&rev.ID, &rev.Title, &rev.Weeks, &reason, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		rev.Reason = reason.String
		rev.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		out = append(out, rev)
	}
	return out, rows.Err()
}

// LoadRevision decodes the workbook saved in revision id.
func (s *Store) LoadRevision(ctx context.Context, id payroll.RevisionID) (*payroll.Workbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRowContext(ctx, "SELECT workbook_json FROM revisions WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payroll.ErrRevisionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load revision: %w", err)
	}

	var wb payroll.Workbook
	if err := json.Unmarshal([]byte(data), &wb); err != nil {
		return nil, fmt.Errorf("failed to decode revision %s: %w", id, err)
	}
	return &wb, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
