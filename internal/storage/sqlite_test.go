package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fetchrelay/config"
)

func TestNew_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "relay.db")

	store, err := New(context.Background(), config.StorageConfig{
		Type:   TypeSQLite,
		SQLite: config.SQLiteStorageConfig{Path: path},
	})
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, TypeSQLite, store.Type())
	assert.FileExists(t, path)
	assert.NoError(t, store.Ping(context.Background()))

	_, ok := store.(SQLite)
	assert.True(t, ok)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Type: "cassandra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}

func TestNew_MissingURLs(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Type: TypePostgreSQL})
	require.Error(t, err)

	_, err = New(context.Background(), config.StorageConfig{Type: TypeMongoDB})
	require.Error(t, err)
}

func TestSQLiteConcurrentWriteSafety(t *testing.T) {
	store, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	db := store.DB()
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS test_audit (id TEXT PRIMARY KEY, data TEXT)`)
	require.NoError(t, err)

	const goroutines = 10
	const insertsPerGoroutine = 50

	var wg sync.WaitGroup
	errs := make(chan error, goroutines*insertsPerGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < insertsPerGoroutine; j++ {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				_, err := db.ExecContext(ctx, `INSERT INTO test_audit (id, data) VALUES (?, ?)`,
					fmt.Sprintf("%d-%d", id, j), "payload")
				cancel()
				if err != nil {
					errs <- fmt.Errorf("goroutine %d insert %d: %w", id, j, err)
				}
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent write error: %v", err)
	}

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM test_audit").Scan(&count))
	assert.Equal(t, goroutines*insertsPerGoroutine, count)
}

func TestNewSQLite_InMemory(t *testing.T) {
	store, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.DB().Exec(`CREATE TABLE t (x INTEGER)`)
	require.NoError(t, err)
	_, err = store.DB().Exec(`INSERT INTO t VALUES (1)`)
	require.NoError(t, err)

	var x int
	require.NoError(t, store.DB().QueryRow(`SELECT x FROM t`).Scan(&x))
	assert.Equal(t, 1, x)
}
