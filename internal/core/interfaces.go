package core

import "context"

// Fetcher retrieves a remote resource with a single outbound GET.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*FetchedResource, error)
}

// HostChecker decides whether a URL may be fetched.
type HostChecker interface {
	Check(rawURL string) error
}

// FileAssistant is the subset of the OpenAI API the relay forwards to:
// the Files endpoint plus thread messages and runs.
type FileAssistant interface {
	CreateFile(ctx context.Context, req *FileCreateRequest) (*FileObject, error)
	CreateMessage(ctx context.Context, threadID string, req *MessageCreateRequest) (*ThreadMessage, error)
	CreateRun(ctx context.Context, threadID string, req *RunCreateRequest) (*Run, error)
}
