package openai

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"fetchrelay/internal/core"
	"fetchrelay/internal/llmclient"
)

// CreateFile uploads req.Content through the multipart files API.
func (c *Client) CreateFile(ctx context.Context, req *core.FileCreateRequest) (*core.FileObject, error) {
	if req == nil {
		return nil, core.NewBadRequestError("request is required", nil)
	}
	purpose := strings.TrimSpace(req.Purpose)
	if purpose == "" {
		return nil, core.NewBadRequestError("purpose is required", nil)
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = core.UploadFallbackFilename
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("purpose", purpose); err != nil {
		return nil, core.NewBadRequestError("failed to write purpose field", err)
	}
	// CreateFormFile labels the part application/octet-stream.
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, core.NewBadRequestError("failed to create multipart file field", err)
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, core.NewBadRequestError("failed to write file content", err)
	}
	if err := writer.Close(); err != nil {
		return nil, core.NewBadRequestError("failed to finalize multipart payload", err)
	}

	var fileObj core.FileObject
	if err := c.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/files",
		RawBody:  buf.Bytes(),
		Headers: map[string]string{
			"Content-Type": writer.FormDataContentType(),
		},
	}, &fileObj); err != nil {
		return nil, err
	}
	if fileObj.ID == "" {
		return nil, core.NewUpstreamAPIError(http.StatusBadGateway, "files API returned no file id", nil)
	}
	if fileObj.Object == "" {
		fileObj.Object = "file"
	}
	return &fileObj, nil
}
