package core

// FileCreateRequest represents an OpenAI-compatible file upload request.
// The actual request is multipart/form-data; Content is not serialized.
type FileCreateRequest struct {
	Purpose  string `json:"purpose"`
	Filename string `json:"filename,omitempty"`
	Content  []byte `json:"-"`
}

// FileObject represents an OpenAI-compatible file object.
type FileObject struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	Bytes     int64  `json:"bytes"`
	CreatedAt int64  `json:"created_at"`
	Filename  string `json:"filename"`
	Purpose   string `json:"purpose"`
	Status    string `json:"status,omitempty"`
}

// AttachmentTool names a tool an attached file is made available to.
type AttachmentTool struct {
	Type string `json:"type"`
}

// Attachment links an uploaded file to a thread message.
type Attachment struct {
	FileID string           `json:"file_id"`
	Tools  []AttachmentTool `json:"tools"`
}

// MessageCreateRequest is the body of POST /threads/{thread_id}/messages.
type MessageCreateRequest struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// ThreadMessage is the subset of the message object the relay reads back.
type ThreadMessage struct {
	ID       string `json:"id"`
	Object   string `json:"object"`
	ThreadID string `json:"thread_id"`
	Role     string `json:"role"`
}

// RunCreateRequest is the body of POST /threads/{thread_id}/runs.
type RunCreateRequest struct {
	AssistantID string `json:"assistant_id"`
}

// Run is the subset of the run object the relay reads back.
type Run struct {
	ID          string `json:"id"`
	Object      string `json:"object"`
	ThreadID    string `json:"thread_id"`
	AssistantID string `json:"assistant_id"`
	Status      string `json:"status"`
}
