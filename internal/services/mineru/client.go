package mineru

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
)

const (
	defaultBaseURL      = "https://mineru.net/api/v4"
	defaultPollInterval = 5 * time.Second
	defaultMaxWait      = 10 * time.Minute
	defaultHTTPTimeout  = 60 * time.Second
)

// ErrTimeout reports an extraction task that did not reach a terminal
// state within the configured wait budget.
var ErrTimeout = errors.New("mineru: extraction timed out")

// Config captures the runtime settings required to talk to MinerU.
type Config struct {
	BaseURL      string
	Token        string
	EnableOCR    bool
	PollInterval time.Duration
	MaxWait      time.Duration
}

// Client wraps the MinerU extraction API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sleeper    func(time.Duration)
	now        func() time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how poll sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a MinerU client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			BaseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Token:        strings.TrimSpace(cfg.Token),
			EnableOCR:    cfg.EnableOCR,
			PollInterval: cfg.PollInterval,
			MaxWait:      cfg.MaxWait,
		},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		sleeper:    time.Sleep,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.PollInterval <= 0 {
		client.cfg.PollInterval = defaultPollInterval
	}
	if client.cfg.MaxWait <= 0 {
		client.cfg.MaxWait = defaultMaxWait
	}
	return client
}

type apiEnvelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type taskCreated struct {
	TaskID string `json:"task_id"`
}

type taskState struct {
	TaskID     string `json:"task_id"`
	State      string `json:"state"`
	FullZipURL string `json:"full_zip_url"`
	ErrMsg     string `json:"err_msg"`
}

// ExtractMarkdown submits a document URL for extraction, waits for the
// task to finish, and returns the markdown body from the result
// archive.
func (c *Client) ExtractMarkdown(ctx context.Context, documentURL string) ([]byte, error) {
	taskID, err := c.createTask(ctx, documentURL)
	if err != nil {
		return nil, err
	}
	zipURL, err := c.waitForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	archive, err := c.download(ctx, zipURL)
	if err != nil {
		return nil, err
	}
	markdown, err := markdownFromZip(archive)
	if err != nil {
		return nil, fmt.Errorf("mineru: task %s: %w", taskID, err)
	}
	return markdown, nil
}

func (c *Client) createTask(ctx context.Context, documentURL string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"url":    documentURL,
		"is_ocr": c.cfg.EnableOCR,
	})
	if err != nil {
		return "", fmt.Errorf("mineru: marshal request: %w", err)
	}
	var created taskCreated
	if err := c.callAPI(ctx, http.MethodPost, c.cfg.BaseURL+"/extract/task", payload, &created); err != nil {
		return "", err
	}
	if strings.TrimSpace(created.TaskID) == "" {
		return "", errors.New("mineru: create task response missing task_id")
	}
	return created.TaskID, nil
}

func (c *Client) waitForTask(ctx context.Context, taskID string) (string, error) {
	deadline := c.now().Add(c.cfg.MaxWait)
	for {
		var state taskState
		if err := c.callAPI(ctx, http.MethodGet, c.cfg.BaseURL+"/extract/task/"+taskID, nil, &state); err != nil {
			return "", err
		}
		switch state.State {
		case "done":
			if strings.TrimSpace(state.FullZipURL) == "" {
				return "", fmt.Errorf("mineru: task %s finished without a result archive", taskID)
			}
			return state.FullZipURL, nil
		case "failed":
			msg := strings.TrimSpace(state.ErrMsg)
			if msg == "" {
				msg = "no error detail reported"
			}
			return "", fmt.Errorf("mineru: task %s failed: %s", taskID, msg)
		}
		if c.now().After(deadline) {
			return "", fmt.Errorf("%w: task %s still %q after %s", ErrTimeout, taskID, state.State, c.cfg.MaxWait)
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		c.sleeper(c.cfg.PollInterval)
	}
}

func (c *Client) callAPI(ctx context.Context, method, url string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("mineru: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mineru: request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("mineru: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mineru: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	var envelope apiEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("mineru: decode response: %w", err)
	}
	if envelope.Code != 0 {
		msg := strings.TrimSpace(envelope.Msg)
		if msg == "" {
			msg = "no message"
		}
		return fmt.Errorf("mineru: api error %d: %s", envelope.Code, msg)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("mineru: decode response data: %w", err)
		}
	}
	return nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("mineru: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mineru: download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mineru: download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mineru: read archive: %w", err)
	}
	return data, nil
}
