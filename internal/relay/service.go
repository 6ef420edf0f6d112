// Package relay implements the fetch and upload-to-openai operations.
package relay

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"fetchrelay/internal/core"
	"fetchrelay/internal/fetcher"
	"fetchrelay/internal/hostgate"
)

// Service orchestrates the gate, the fetcher and the OpenAI client.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	gate    core.HostChecker
	fetcher core.Fetcher
	files   core.FileAssistant
	hooks   Hooks
}

// NewService creates a Service. files may be nil when no OpenAI API key is
// configured; uploads then fail with a server error before any outbound call.
func NewService(gate core.HostChecker, f core.Fetcher, files core.FileAssistant, hooks Hooks) *Service {
	return &Service{
		gate:    gate,
		fetcher: f,
		files:   files,
		hooks:   hooks,
	}
}

// Fetch retrieves rawURL and returns it as base64 together with a text preview.
func (s *Service) Fetch(ctx context.Context, rawURL string) (*core.FetchResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, core.NewBadRequestError("Missing 'url'", nil)
	}

	res, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	return &core.FetchResult{
		Filename:    fetcher.FilenameFromURL(rawURL, core.FetchFallbackFilename),
		SizeBytes:   len(res.Bytes),
		Base64:      base64.StdEncoding.EncodeToString(res.Bytes),
		TextPreview: TextPreview(res.Bytes),
	}, nil
}

// Upload retrieves req.URL and uploads it to OpenAI Files. When both
// AssistantID and ThreadID are set, the file is attached to a new thread
// message and a run is started.
func (s *Service) Upload(ctx context.Context, req *core.UploadRequest) (*core.UploadResult, error) {
	if req == nil {
		return nil, core.NewBadRequestError("Missing 'url'", nil)
	}
	req = trimUpload(req)
	if req.URL == "" {
		return nil, core.NewBadRequestError("Missing 'url'", nil)
	}
	if s.files == nil {
		return nil, core.NewServerMisconfiguredError("OPENAI_API_KEY not set on server")
	}

	rawURL := req.URL
	start := time.Now()
	info := UploadInfo{}
	defer func() {
		info.Duration = time.Since(start)
		s.hooks.uploaded(ctx, info)
	}()

	res, err := s.fetch(ctx, rawURL)
	if err != nil {
		info.Err = err
		return nil, err
	}
	info.SizeBytes = len(res.Bytes)

	filename := req.Filename
	if filename == "" {
		filename = fetcher.FilenameFromURL(rawURL, core.UploadFallbackFilename)
	}
	info.Filename = filename

	purpose := req.Purpose
	if purpose == "" {
		purpose = core.DefaultPurpose
	}

	file, err := s.files.CreateFile(ctx, &core.FileCreateRequest{
		Purpose:  purpose,
		Filename: filename,
		Content:  res.Bytes,
	})
	if err != nil {
		info.Err = err
		return nil, err
	}
	info.FileID = file.ID

	result := &core.UploadResult{
		FileID:   file.ID,
		Filename: filename,
	}

	if !req.WantsRun() {
		return result, nil
	}

	_, err = s.files.CreateMessage(ctx, req.ThreadID, &core.MessageCreateRequest{
		Role:    "user",
		Content: "New data uploaded: " + filename,
		Attachments: []core.Attachment{{
			FileID: file.ID,
			Tools:  []core.AttachmentTool{{Type: "file_search"}},
		}},
	})
	if err != nil {
		info.Err = err
		return nil, err
	}

	run, err := s.files.CreateRun(ctx, req.ThreadID, &core.RunCreateRequest{AssistantID: req.AssistantID})
	if err != nil {
		info.Err = err
		return nil, err
	}
	info.RunStarted = true
	result.RunID = run.ID

	return result, nil
}

// trimUpload returns a copy of req with surrounding whitespace removed from
// every field. Blank fields then count as absent.
func trimUpload(req *core.UploadRequest) *core.UploadRequest {
	return &core.UploadRequest{
		URL:         strings.TrimSpace(req.URL),
		Purpose:     strings.TrimSpace(req.Purpose),
		Filename:    strings.TrimSpace(req.Filename),
		AssistantID: strings.TrimSpace(req.AssistantID),
		ThreadID:    strings.TrimSpace(req.ThreadID),
	}
}

// fetch applies the host gate and performs the GET.
func (s *Service) fetch(ctx context.Context, rawURL string) (*core.FetchedResource, error) {
	start := time.Now()
	info := FetchInfo{Host: hostgate.Hostname(rawURL)}

	res, err := s.doFetch(ctx, rawURL)
	info.Duration = time.Since(start)
	if err != nil {
		info.Err = err
	} else {
		info.SizeBytes = len(res.Bytes)
	}
	s.hooks.fetched(ctx, info)

	return res, err
}

func (s *Service) doFetch(ctx context.Context, rawURL string) (*core.FetchedResource, error) {
	if s.gate != nil {
		if err := s.gate.Check(rawURL); err != nil {
			return nil, err
		}
	}
	return s.fetcher.Fetch(ctx, rawURL)
}
