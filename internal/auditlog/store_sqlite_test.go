package auditlog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fetchrelay/internal/storage"
)

func newSQLiteStore(t *testing.T, retentionDays int) (*SQLiteStore, storage.SQLite) {
	t.Helper()
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLiteStore(db.DB(), retentionDays)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, db
}

func TestSQLiteStore_WriteBatch(t *testing.T) {
	store, db := newSQLiteStore(t, 0)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []*LogEntry{
		{
			ID:         "e1",
			Timestamp:  ts,
			DurationNs: 1500,
			RequestID:  "req-1",
			Method:     "POST",
			Path:       "/upload-to-openai",
			StatusCode: 200,
			TargetHost: "raw.githubusercontent.com",
			Filename:   "data.csv",
			SizeBytes:  42,
			FileID:     "file-1",
			RunID:      "run-1",
		},
		{
			ID:           "e2",
			Timestamp:    ts,
			Method:       "POST",
			Path:         "/fetch",
			StatusCode:   400,
			ErrorType:    "invalid_request_error",
			ErrorMessage: "Missing 'url'",
		},
	}

	require.NoError(t, store.WriteBatch(context.Background(), entries))
	// Duplicate ids are ignored.
	require.NoError(t, store.WriteBatch(context.Background(), entries[:1]))

	var count int
	require.NoError(t, db.DB().QueryRow("SELECT COUNT(*) FROM audit_logs").Scan(&count))
	assert.Equal(t, 2, count)

	var host, filename, fileID, runID string
	var size, status int
	require.NoError(t, db.DB().QueryRow(
		"SELECT target_host, filename, size_bytes, file_id, run_id, status_code FROM audit_logs WHERE id = ?", "e1",
	).Scan(&host, &filename, &size, &fileID, &runID, &status))
	assert.Equal(t, "raw.githubusercontent.com", host)
	assert.Equal(t, "data.csv", filename)
	assert.Equal(t, 42, size)
	assert.Equal(t, "file-1", fileID)
	assert.Equal(t, "run-1", runID)
	assert.Equal(t, 200, status)

	var errType string
	require.NoError(t, db.DB().QueryRow("SELECT error_type FROM audit_logs WHERE id = ?", "e2").Scan(&errType))
	assert.Equal(t, "invalid_request_error", errType)
}

func TestSQLiteStore_WriteBatch_Chunks(t *testing.T) {
	store, db := newSQLiteStore(t, 0)

	n := maxEntriesPerBatch*2 + 5
	entries := make([]*LogEntry, n)
	for i := range entries {
		entries[i] = &LogEntry{ID: fmt.Sprintf("e%d", i), Timestamp: time.Now(), Path: "/fetch"}
	}

	require.NoError(t, store.WriteBatch(context.Background(), entries))

	var count int
	require.NoError(t, db.DB().QueryRow("SELECT COUNT(*) FROM audit_logs").Scan(&count))
	assert.Equal(t, n, count)
}

func TestSQLiteStore_Cleanup(t *testing.T) {
	store, db := newSQLiteStore(t, 0)
	store.retentionDays = 7

	require.NoError(t, store.WriteBatch(context.Background(), []*LogEntry{
		{ID: "old", Timestamp: time.Now().AddDate(0, 0, -30)},
		{ID: "new", Timestamp: time.Now()},
	}))

	store.cleanup()

	var ids []string
	rows, err := db.DB().Query("SELECT id FROM audit_logs")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"new"}, ids)
}

func TestNewSQLiteStore_NilDB(t *testing.T) {
	_, err := NewSQLiteStore(nil, 0)
	require.Error(t, err)
}
