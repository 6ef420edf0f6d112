package relay

import (
	"context"
	"time"
)

// FetchInfo describes one completed outbound GET.
type FetchInfo struct {
	Host      string
	SizeBytes int
	Duration  time.Duration
	Err       error
}

// UploadInfo describes one completed upload-to-openai call.
type UploadInfo struct {
	Filename   string
	SizeBytes  int
	FileID     string
	RunStarted bool
	Duration   time.Duration
	Err        error
}

// Hooks receives observability callbacks from the Service.
// Nil callbacks are skipped; the zero value records nothing.
type Hooks struct {
	OnFetch  func(ctx context.Context, info FetchInfo)
	OnUpload func(ctx context.Context, info UploadInfo)
}

func (h Hooks) fetched(ctx context.Context, info FetchInfo) {
	if h.OnFetch != nil {
		h.OnFetch(ctx, info)
	}
}

func (h Hooks) uploaded(ctx context.Context, info UploadInfo) {
	if h.OnUpload != nil {
		h.OnUpload(ctx, info)
	}
}
