package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUnauthorized     = errors.New("session expired")
)

// APIError carries the status and detail message of a non-2xx response
// other than 401.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Detail)
}

// Client issues authenticated requests against the backend. The token
// source and unauthorized hook are wired in at composition time because the
// session service both feeds the token and reacts to 401s.
type Client struct {
	baseURL        string
	http           *http.Client
	stream         *http.Client
	tokenFn        func() string
	onUnauthorized func()
}

func NewClient(baseURL string, requestTimeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: requestTimeout,
		},
		// Streaming responses stay open for the duration of a send, so the
		// stream client carries no overall timeout; cancellation comes from
		// the request context.
		stream: &http.Client{},
	}
}

func (c *Client) SetTokenSource(fn func() string) {
	c.tokenFn = fn
}

func (c *Client) SetUnauthorizedHook(fn func()) {
	c.onUnauthorized = fn
}

func (c *Client) token() string {
	if c.tokenFn == nil {
		return ""
	}
	return c.tokenFn()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, authed bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	if authed {
		token := c.token()
		if token == "" {
			return nil, ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// doJSON issues a JSON request and decodes a JSON response into out when
// out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any, authed bool) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body, authed)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.responseError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// responseError classifies a non-2xx response. 401s invoke the
// unauthorized hook so the session is cleared no matter which call
// observed the expiry.
func (c *Client) responseError(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrUnauthorized
	}

	detail := errorDetail(resp.Body)
	return &APIError{Status: resp.StatusCode, Detail: detail}
}

func decodeJSON(body io.Reader, out any) error {
	return json.NewDecoder(body).Decode(out)
}

// errorDetail extracts the backend's error message. FastAPI puts it under
// "detail", sometimes as a list of validation messages.
func errorDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64*1024))
	if err != nil || !gjson.ValidBytes(data) {
		return ""
	}

	res := gjson.ParseBytes(data)
	detail := res.Get("detail")
	if detail.IsArray() {
		parts := make([]string, 0, len(detail.Array()))
		for _, item := range detail.Array() {
			if msg := item.Get("msg").String(); msg != "" {
				parts = append(parts, msg)
			} else {
				parts = append(parts, item.String())
			}
		}
		return strings.Join(parts, ", ")
	}
	if detail.Exists() {
		return detail.String()
	}

	return res.Get("message").String()
}
