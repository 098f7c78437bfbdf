package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/loomhq/loom/internal/models"
)

type CreateThreadRequest struct {
	ContextType models.ContextType `json:"context_type"`
	TaskType    string             `json:"task_type,omitempty"`
	Title       string             `json:"title,omitempty"`
}

// HistoryMessage is one persisted message as the backend returns it.
// Older checkpoints carry only role and content, so everything else is
// optional.
type HistoryMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	EntryID   string `json:"entry_id"`
	CreatedAt string `json:"created_at"`
}

type ThreadMessagesResponse struct {
	ThreadID    string           `json:"thread_id"`
	Messages    []HistoryMessage `json:"messages"`
	ToolOutputs []string         `json:"tool_outputs"`
}

func (c *Client) ListThreads(ctx context.Context) ([]*models.ThreadInfo, error) {
	var threads []*models.ThreadInfo
	if err := c.doJSON(ctx, http.MethodGet, "/threads", nil, &threads, true); err != nil {
		return nil, err
	}
	return threads, nil
}

func (c *Client) CreateThread(ctx context.Context, payload CreateThreadRequest) (*models.ThreadInfo, error) {
	var created models.ThreadInfo
	if err := c.doJSON(ctx, http.MethodPost, "/threads", payload, &created, true); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("create thread response contained no thread id")
	}
	return &created, nil
}

func (c *Client) ArchiveThread(ctx context.Context, threadID string) error {
	path := "/threads/" + url.PathEscape(threadID) + "/archive"
	return c.doJSON(ctx, http.MethodPut, path, nil, nil, true)
}

func (c *Client) ThreadMessages(ctx context.Context, threadID string) (*ThreadMessagesResponse, error) {
	path := "/threads/" + url.PathEscape(threadID) + "/messages"
	var out ThreadMessagesResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}
