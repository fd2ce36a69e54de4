package state

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; a mismatched database must be deleted and rebuilt (records are
// reconstructible, worst case is redundant re-transcodes).
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// StateDirName is the directory under the output root holding run state.
const StateDirName = ".playpack"

// Record describes one completed transfer keyed by destination path.
type Record struct {
	DestPath      string
	SourcePath    string
	SourceSize    int64
	SourceMtimeNS int64
	Action        string
	BitrateKbps   int
	RunID         string
	CompletedAt   time.Time
}

// Matches reports whether the record still describes the given source state
// and requested work. Any difference means the destination must be rebuilt.
func (r Record) Matches(sourceSize, sourceMtimeNS int64, action string, bitrateKbps int) bool {
	return r.SourceSize == sourceSize &&
		r.SourceMtimeNS == sourceMtimeNS &&
		strings.EqualFold(r.Action, action) &&
		r.BitrateKbps == bitrateKbps
}

// Store manages transfer persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the state database under outputRoot.
func Open(outputRoot string) (*Store, error) {
	stateDir := filepath.Join(outputRoot, StateDirName)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	dbPath := filepath.Join(stateDir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk database location.
func (s *Store) Path() string {
	return s.path
}

// Lookup fetches the transfer record for a destination path, if any.
func (s *Store) Lookup(ctx context.Context, destPath string) (Record, bool, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `
		SELECT dest_path, source_path, source_size, source_mtime_ns, action, bitrate_kbps, run_id, completed_at
		FROM transfers WHERE dest_path = ?`, destPath)

	var rec Record
	var completedAt string
	err := row.Scan(&rec.DestPath, &rec.SourcePath, &rec.SourceSize, &rec.SourceMtimeNS,
		&rec.Action, &rec.BitrateKbps, &rec.RunID, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("lookup transfer %s: %w", destPath, err)
	}
	if parsed, parseErr := time.Parse(time.RFC3339Nano, completedAt); parseErr == nil {
		rec.CompletedAt = parsed
	}
	return rec, true, nil
}

// Put inserts or replaces the transfer record for a destination path.
func (s *Store) Put(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.DestPath) == "" {
		return errors.New("record requires a destination path")
	}
	completedAt := rec.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	return s.execWithRetry(ctx, `
		INSERT INTO transfers (dest_path, source_path, source_size, source_mtime_ns, action, bitrate_kbps, run_id, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dest_path) DO UPDATE SET
			source_path = excluded.source_path,
			source_size = excluded.source_size,
			source_mtime_ns = excluded.source_mtime_ns,
			action = excluded.action,
			bitrate_kbps = excluded.bitrate_kbps,
			run_id = excluded.run_id,
			completed_at = excluded.completed_at`,
		rec.DestPath, rec.SourcePath, rec.SourceSize, rec.SourceMtimeNS,
		rec.Action, rec.BitrateKbps, rec.RunID, completedAt.Format(time.RFC3339Nano))
}

// Count returns the number of recorded transfers.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM transfers").Scan(&count); err != nil {
		return 0, fmt.Errorf("count transfers: %w", err)
	}
	return count, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == 5 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
