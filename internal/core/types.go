package core

// DefaultPurpose is the OpenAI file purpose used when the caller omits one.
const DefaultPurpose = "assistants"

const (
	// FetchFallbackFilename names fetched resources whose URL has no final path segment.
	FetchFallbackFilename = "file.dat"
	// UploadFallbackFilename names uploads whose URL has no final path segment.
	UploadFallbackFilename = "remote.dat"
)

// FetchRequest is the body of POST /fetch.
type FetchRequest struct {
	URL string `json:"url"`
}

// FetchedResource is the raw result of one outbound GET.
// It lives only for the duration of the request that produced it.
type FetchedResource struct {
	Bytes       []byte
	Filename    string
	ContentType string
}

// FetchResult is returned by POST /fetch.
// TextPreview is serialized as null when the content could not be decoded.
type FetchResult struct {
	Filename    string  `json:"filename"`
	SizeBytes   int     `json:"size_bytes"`
	Base64      string  `json:"base64"`
	TextPreview *string `json:"text_preview"`
}

// UploadRequest is the body of POST /upload-to-openai.
type UploadRequest struct {
	URL         string `json:"url"`
	Purpose     string `json:"purpose,omitempty"`
	Filename    string `json:"filename,omitempty"`
	AssistantID string `json:"assistant_id,omitempty"`
	ThreadID    string `json:"thread_id,omitempty"`
}

// WantsRun reports whether the upload should be attached to a thread and run.
func (r *UploadRequest) WantsRun() bool {
	return r.AssistantID != "" && r.ThreadID != ""
}

// UploadResult is returned by POST /upload-to-openai.
type UploadResult struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	RunID    string `json:"run_id,omitempty"`
}
