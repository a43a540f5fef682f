package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running daemon over its HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption configures optional Client behavior.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client (used in tests).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient builds a client for the daemon at baseURL. The token is
// sent as a bearer credential when non-empty.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Submit enqueues a document URL for processing.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (Task, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodPost, "/api/tasks", req, &resp)
	return resp.Item, err
}

// List returns queue tasks, optionally filtered by status.
func (c *Client) List(ctx context.Context, statuses ...string) ([]Task, error) {
	path := "/api/tasks"
	if len(statuses) > 0 {
		values := url.Values{}
		for _, status := range statuses {
			values.Add("status", status)
		}
		path += "?" + values.Encode()
	}
	var resp TaskListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Get fetches a single task by queue id.
func (c *Client) Get(ctx context.Context, id int64) (Task, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%d", id), nil, &resp)
	return resp.Item, err
}

// Remove deletes a task from the queue.
func (c *Client) Remove(ctx context.Context, id int64) (bool, error) {
	var resp RemoveResponse
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, &resp)
	return resp.Removed, err
}

// Retry resets a failed task back to its retry point.
func (c *Client) Retry(ctx context.Context, id int64) (int64, error) {
	var resp CountResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tasks/%d/retry", id), nil, &resp)
	return resp.Count, err
}

// RetryAllFailed resets every failed task.
func (c *Client) RetryAllFailed(ctx context.Context) (int64, error) {
	var resp CountResponse
	err := c.do(ctx, http.MethodPost, "/api/queue/retry", nil, &resp)
	return resp.Count, err
}

// Clear removes queue tasks. Scope is "all", "completed", or "failed".
func (c *Client) Clear(ctx context.Context, scope string) (int64, error) {
	path := "/api/queue/clear"
	if scope != "" {
		path += "?scope=" + url.QueryEscape(scope)
	}
	var resp CountResponse
	err := c.do(ctx, http.MethodPost, path, nil, &resp)
	return resp.Count, err
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var resp DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp)
	return resp, err
}

// Health fetches aggregate queue health counts.
func (c *Client) Health(ctx context.Context) (QueueHealthResponse, error) {
	var resp QueueHealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp)
	return resp, err
}

// TestNotification asks the daemon to send a test notification.
func (c *Client) TestNotification(ctx context.Context) (TestNotificationResponse, error) {
	var resp TestNotificationResponse
	err := c.do(ctx, http.MethodPost, "/api/notifications/test", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
