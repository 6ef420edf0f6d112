// Package storage opens the database backing the audit log.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"fetchrelay/config"
)

// Type constants for storage backends
const (
	TypeSQLite     = "sqlite"
	TypePostgreSQL = "postgresql"
	TypeMongoDB    = "mongodb"
)

const (
	// DefaultSQLitePath is used when SQLITE_PATH is empty.
	DefaultSQLitePath = "data/relay.db"
	// DefaultMongoDatabase is used when MONGODB_DATABASE is empty.
	DefaultMongoDatabase = "relay"
	// DefaultPostgresMaxConns is used when POSTGRES_MAX_CONNS is unset.
	DefaultPostgresMaxConns = 10
)

// Storage is an open database connection.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Type returns the storage type ("sqlite", "postgresql", or "mongodb")
	Type() string

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Close releases all resources held by the storage.
	Close() error
}

// SQLite is a Storage backed by a database/sql handle.
type SQLite interface {
	Storage
	DB() *sql.DB
}

// PostgreSQL is a Storage backed by a pgx pool.
type PostgreSQL interface {
	Storage
	Pool() *pgxpool.Pool
}

// MongoDB is a Storage backed by a mongo database.
type MongoDB interface {
	Storage
	Database() *mongo.Database
}

// New opens the backend selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case TypeSQLite, "":
		return NewSQLite(cfg.SQLite.Path)
	case TypePostgreSQL, "postgres":
		return NewPostgreSQL(ctx, cfg.PostgreSQL.URL, cfg.PostgreSQL.MaxConns)
	case TypeMongoDB, "mongo":
		return NewMongoDB(ctx, cfg.MongoDB.URL, cfg.MongoDB.Database)
	default:
		return nil, fmt.Errorf("unknown storage type: %s (valid: sqlite, postgresql, mongodb)", cfg.Type)
	}
}
