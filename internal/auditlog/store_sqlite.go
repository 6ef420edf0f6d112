package auditlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// SQLite has a default limit of 999 bindable parameters per query.
// Larger batches are split so that columnsPerEntry * rows stays below it.
const (
	maxSQLiteParams    = 999
	columnsPerEntry    = 17
	maxEntriesPerBatch = maxSQLiteParams / columnsPerEntry
)

const sqliteInsertColumns = `id, timestamp, duration_ns, request_id, client_ip, user_agent, api_key_hash,
	method, path, status_code, target_host, filename, size_bytes, file_id, run_id, error_type, error_message`

// SQLiteStore implements LogStore for SQLite databases.
type SQLiteStore struct {
	db            *sql.DB
	retentionDays int
	stopCleanup   chan struct{}
	closeOnce     sync.Once
}

// NewSQLiteStore creates the audit_logs table if needed and starts the
// retention cleanup when retentionDays is positive.
func NewSQLiteStore(db *sql.DB, retentionDays int) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			timestamp DATETIME NOT NULL,
			duration_ns INTEGER DEFAULT 0,
			request_id TEXT,
			client_ip TEXT,
			user_agent TEXT,
			api_key_hash TEXT,
			method TEXT,
			path TEXT,
			status_code INTEGER DEFAULT 0,
			target_host TEXT,
			filename TEXT,
			size_bytes INTEGER DEFAULT 0,
			file_id TEXT,
			run_id TEXT,
			error_type TEXT,
			error_message TEXT
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit_logs table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_logs(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_audit_status ON audit_logs(status_code)",
		"CREATE INDEX IF NOT EXISTS idx_audit_request_id ON audit_logs(request_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_target_host ON audit_logs(target_host)",
		"CREATE INDEX IF NOT EXISTS idx_audit_error_type ON audit_logs(error_type)",
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			slog.Warn("failed to create index", "error", err)
		}
	}

	store := &SQLiteStore{
		db:            db,
		retentionDays: retentionDays,
		stopCleanup:   make(chan struct{}),
	}

	if retentionDays > 0 {
		go RunCleanupLoop(store.stopCleanup, store.cleanup)
	}

	return store, nil
}

// WriteBatch inserts entries, chunked to stay within SQLite's parameter limit.
// Entries whose id already exists are skipped.
func (s *SQLiteStore) WriteBatch(ctx context.Context, entries []*LogEntry) error {
	for i := 0; i < len(entries); i += maxEntriesPerBatch {
		chunk := entries[i:min(i+maxEntriesPerBatch, len(entries))]

		placeholders := make([]string, len(chunk))
		values := make([]any, 0, len(chunk)*columnsPerEntry)
		row := "(" + strings.TrimSuffix(strings.Repeat("?, ", columnsPerEntry), ", ") + ")"

		for j, e := range chunk {
			placeholders[j] = row
			values = append(values,
				e.ID,
				e.Timestamp.UTC().Format(time.RFC3339Nano),
				e.DurationNs,
				e.RequestID,
				e.ClientIP,
				e.UserAgent,
				e.APIKeyHash,
				e.Method,
				e.Path,
				e.StatusCode,
				e.TargetHost,
				e.Filename,
				e.SizeBytes,
				e.FileID,
				e.RunID,
				e.ErrorType,
				e.ErrorMessage,
			)
		}

		query := "INSERT OR IGNORE INTO audit_logs (" + sqliteInsertColumns + ") VALUES " +
			strings.Join(placeholders, ",")

		if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
			return fmt.Errorf("failed to insert audit logs batch %d: %w", i/maxEntriesPerBatch, err)
		}
	}

	return nil
}

// Flush is a no-op for SQLite as writes are synchronous.
func (s *SQLiteStore) Flush(_ context.Context) error {
	return nil
}

// Close stops the cleanup goroutine. The database itself belongs to the
// storage layer. Safe to call multiple times.
func (s *SQLiteStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}

// cleanup deletes log entries older than the retention period.
func (s *SQLiteStore) cleanup() {
	if s.retentionDays <= 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays).UTC().Format(time.RFC3339Nano)

	result, err := s.db.Exec("DELETE FROM audit_logs WHERE timestamp < ?", cutoff)
	if err != nil {
		slog.Error("failed to cleanup old audit logs", "error", err)
		return
	}

	if rowsAffected, err := result.RowsAffected(); err == nil && rowsAffected > 0 {
		slog.Info("cleaned up old audit logs", "deleted", rowsAffected)
	}
}
