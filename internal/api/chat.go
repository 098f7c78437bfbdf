package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/loomhq/loom/internal/models"
)

type ChatRequest struct {
	Message     string             `json:"message"`
	ThreadID    string             `json:"thread_id"`
	ContextType models.ContextType `json:"context_type"`
	TaskType    string             `json:"task_type,omitempty"`
}

// StreamChat opens the chat stream and hands back the raw body. The caller
// owns the body and feeds it through ScanEvents; closing it (or cancelling
// ctx) aborts the stream.
func (c *Client) StreamChat(ctx context.Context, payload ChatRequest) (io.ReadCloser, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/chat/stream", bytes.NewReader(data), true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat stream request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() {
			_ = resp.Body.Close()
		}()
		return nil, c.responseError(resp)
	}

	return resp.Body, nil
}

func (c *Client) ResetChat(ctx context.Context, threadID string) error {
	payload := map[string]string{"thread_id": threadID}
	return c.doJSON(ctx, http.MethodPost, "/chat/reset", payload, nil, true)
}
