package openai

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"fetchrelay/internal/core"
	"fetchrelay/internal/llmclient"
)

// CreateMessage posts a message to an existing thread.
func (c *Client) CreateMessage(ctx context.Context, threadID string, req *core.MessageCreateRequest) (*core.ThreadMessage, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return nil, core.NewBadRequestError("thread_id is required", nil)
	}
	if req == nil {
		return nil, core.NewBadRequestError("message is required", nil)
	}

	var msg core.ThreadMessage
	if err := c.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/threads/" + url.PathEscape(threadID) + "/messages",
		Body:     req,
		Headers:  map[string]string{"OpenAI-Beta": assistantsBetaHeader},
	}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateRun starts a run of an assistant against a thread.
func (c *Client) CreateRun(ctx context.Context, threadID string, req *core.RunCreateRequest) (*core.Run, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return nil, core.NewBadRequestError("thread_id is required", nil)
	}
	if req == nil || strings.TrimSpace(req.AssistantID) == "" {
		return nil, core.NewBadRequestError("assistant_id is required", nil)
	}

	var run core.Run
	if err := c.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/threads/" + url.PathEscape(threadID) + "/runs",
		Body:     req,
		Headers:  map[string]string{"OpenAI-Beta": assistantsBetaHeader},
	}, &run); err != nil {
		return nil, err
	}
	if run.ID == "" {
		return nil, core.NewUpstreamAPIError(http.StatusBadGateway, "runs API returned no run id", nil)
	}
	return &run, nil
}
