// Package auditlog records relay request metadata in a configurable backend.
// Entries describe who asked for what and how it ended; fetched bytes,
// request bodies and credentials are never stored.
package auditlog

import (
	"context"
	"time"
)

// LogStore defines the interface for audit log storage backends.
// Implementations must be safe for concurrent use.
type LogStore interface {
	// WriteBatch writes multiple log entries to storage.
	// This is called by the Logger when flushing buffered entries.
	WriteBatch(ctx context.Context, entries []*LogEntry) error

	// Flush forces any pending writes to complete.
	// Called during graceful shutdown.
	Flush(ctx context.Context) error

	// Close releases resources and flushes pending writes.
	Close() error
}

// LogEntry is one audited relay request.
type LogEntry struct {
	ID         string    `json:"id" bson:"_id"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
	DurationNs int64     `json:"duration_ns" bson:"duration_ns"`

	// Caller
	RequestID  string `json:"request_id,omitempty" bson:"request_id,omitempty"`
	ClientIP   string `json:"client_ip,omitempty" bson:"client_ip,omitempty"`
	UserAgent  string `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	APIKeyHash string `json:"api_key_hash,omitempty" bson:"api_key_hash,omitempty"`

	// Request
	Method     string `json:"method" bson:"method"`
	Path       string `json:"path" bson:"path"`
	StatusCode int    `json:"status_code" bson:"status_code"`

	// Relay outcome
	TargetHost string `json:"target_host,omitempty" bson:"target_host,omitempty"`
	Filename   string `json:"filename,omitempty" bson:"filename,omitempty"`
	SizeBytes  int    `json:"size_bytes,omitempty" bson:"size_bytes,omitempty"`
	FileID     string `json:"file_id,omitempty" bson:"file_id,omitempty"`
	RunID      string `json:"run_id,omitempty" bson:"run_id,omitempty"`

	ErrorType    string `json:"error_type,omitempty" bson:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty" bson:"error_message,omitempty"`
}

// Config holds audit logging configuration
type Config struct {
	// Enabled controls whether audit logging is active
	Enabled bool

	// BufferSize is the number of log entries to buffer before dropping
	BufferSize int

	// FlushInterval is how often to flush buffered logs
	FlushInterval time.Duration

	// RetentionDays is how long to keep logs (0 = forever)
	RetentionDays int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Enabled:       false,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
		RetentionDays: 30,
	}
}

const (
	// BatchFlushThreshold is the number of entries that triggers an immediate flush.
	BatchFlushThreshold = 100

	// APIKeyHashPrefixLength is the number of hex characters kept from the SHA-256 hash.
	APIKeyHashPrefixLength = 16

	// CleanupInterval is how often expired entries are deleted.
	CleanupInterval = 1 * time.Hour
)

// RunCleanupLoop runs cleanupFn immediately and then every CleanupInterval
// until stop is closed.
func RunCleanupLoop(stop <-chan struct{}, cleanupFn func()) {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	cleanupFn()

	for {
		select {
		case <-ticker.C:
			cleanupFn()
		case <-stop:
			return
		}
	}
}
