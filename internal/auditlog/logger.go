package auditlog

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LoggerInterface is implemented by Logger and NoopLogger.
type LoggerInterface interface {
	Write(entry *LogEntry)
	Config() Config
	Close() error
}

// Logger buffers entries in a channel and writes them to the store in
// batches, either when BatchFlushThreshold entries are pending or every
// FlushInterval.
type Logger struct {
	store     LogStore
	config    Config
	buffer    chan *LogEntry
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// NewLogger creates a Logger and starts its flush goroutine.
func NewLogger(store LogStore, cfg Config) *Logger {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}

	l := &Logger{
		store:  store,
		config: cfg,
		buffer: make(chan *LogEntry, cfg.BufferSize),
		done:   make(chan struct{}),
	}

	l.wg.Add(1)
	go l.flushLoop()

	return l
}

// Write queues an entry without blocking. When the buffer is full the entry
// is dropped and a warning is logged.
func (l *Logger) Write(entry *LogEntry) {
	if entry == nil {
		return
	}

	select {
	case <-l.done:
		return
	default:
	}

	select {
	case l.buffer <- entry:
	default:
		slog.Warn("audit log buffer full, dropping entry",
			"request_id", entry.RequestID,
			"path", entry.Path,
		)
	}
}

// Config returns the logger configuration
func (l *Logger) Config() Config {
	return l.config
}

// Close stops the flush loop, writes what is still buffered and closes the
// store. Safe to call multiple times.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
		l.wg.Wait()
		l.closeErr = l.store.Close()
	})
	return l.closeErr
}

func (l *Logger) flushLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*LogEntry, 0, BatchFlushThreshold)

	for {
		select {
		case entry := <-l.buffer:
			batch = append(batch, entry)
			if len(batch) >= BatchFlushThreshold {
				l.flushBatch(batch)
				batch = make([]*LogEntry, 0, BatchFlushThreshold)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				l.flushBatch(batch)
				batch = make([]*LogEntry, 0, BatchFlushThreshold)
			}

		case <-l.done:
			// The channel stays open so a late Write cannot panic.
		drain:
			for {
				select {
				case entry := <-l.buffer:
					batch = append(batch, entry)
				default:
					break drain
				}
			}
			l.flushBatch(batch)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := l.store.Flush(ctx); err != nil {
				slog.Error("failed to flush audit log store", "error", err)
			}
			cancel()
			return
		}
	}
}

func (l *Logger) flushBatch(batch []*LogEntry) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := l.store.WriteBatch(ctx, batch); err != nil {
		slog.Error("failed to write audit log batch",
			"error", err,
			"count", len(batch),
		)
	}
}

// NoopLogger discards every entry. It is used when audit logging is disabled.
type NoopLogger struct{}

// Write does nothing
func (l *NoopLogger) Write(_ *LogEntry) {}

// Config returns a disabled config
func (l *NoopLogger) Config() Config {
	return Config{Enabled: false}
}

// Close does nothing
func (l *NoopLogger) Close() error {
	return nil
}
