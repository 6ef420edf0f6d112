package auditlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fetchrelay/config"
	"fetchrelay/internal/storage"
)

// Result holds the initialized audit logger and its storage.
// The caller is responsible for calling Close() to release resources.
type Result struct {
	Logger  LoggerInterface
	Storage storage.Storage
}

// Close releases all resources held by the audit logger.
// Safe to call multiple times.
func (r *Result) Close() error {
	var errs []error
	if r.Logger != nil {
		if err := r.Logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("logger close: %w", err))
		}
	}
	if r.Storage != nil {
		if err := r.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
		r.Storage = nil
	}
	return errors.Join(errs...)
}

// New creates an audit logger from configuration.
// When audit logging is disabled it returns a NoopLogger and no storage.
func New(ctx context.Context, cfg *config.Config) (*Result, error) {
	if !cfg.Audit.Enabled {
		return &Result{Logger: &NoopLogger{}}, nil
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	logStore, err := NewLogStore(store, cfg.Audit.RetentionDays)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Result{
		Logger:  NewLogger(logStore, loggerConfig(cfg.Audit)),
		Storage: store,
	}, nil
}

// NewLogStore creates the LogStore matching the storage backend.
func NewLogStore(store storage.Storage, retentionDays int) (LogStore, error) {
	switch s := store.(type) {
	case storage.SQLite:
		return NewSQLiteStore(s.DB(), retentionDays)
	case storage.PostgreSQL:
		return NewPostgreSQLStore(s.Pool(), retentionDays)
	case storage.MongoDB:
		return NewMongoDBStore(s.Database(), retentionDays)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", store.Type())
	}
}

func loggerConfig(c config.AuditConfig) Config {
	cfg := Config{
		Enabled:       c.Enabled,
		BufferSize:    c.BufferSize,
		FlushInterval: time.Duration(c.FlushInterval) * time.Second,
		RetentionDays: c.RetentionDays,
	}
	defaults := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaults.BufferSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaults.FlushInterval
	}
	return cfg
}
