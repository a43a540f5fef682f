package arkvideo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL      = "https://ark.cn-beijing.volces.com/api/v3"
	defaultPollInterval = time.Second
	defaultMaxWait      = 10 * time.Minute
	defaultHTTPTimeout  = 120 * time.Second
)

// ErrTimeout reports a generation task that did not reach a terminal
// state within the configured wait budget.
var ErrTimeout = errors.New("arkvideo: generation timed out")

// Config captures the runtime settings required to talk to the video API.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Resolution      string
	DurationSeconds int
	PollInterval    time.Duration
	MaxWait         time.Duration
}

// Client wraps the Ark video generation API.
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

// NewClient constructs a video client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:          strings.TrimSpace(cfg.APIKey),
			BaseURL:         strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:           strings.TrimSpace(cfg.Model),
			Resolution:      strings.TrimSpace(cfg.Resolution),
			DurationSeconds: cfg.DurationSeconds,
			PollInterval:    cfg.PollInterval,
			MaxWait:         cfg.MaxWait,
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

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type taskCreated struct {
	ID    string    `json:"id"`
	Error *apiError `json:"error"`
}

type taskState struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Content struct {
		VideoURL string `json:"video_url"`
	} `json:"content"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Generate animates a PNG frame with the given motion prompt, waits
// for the task to finish, and returns the result video URL.
func (c *Client) Generate(ctx context.Context, motionPrompt string, image []byte) (string, error) {
	taskID, err := c.createTask(ctx, motionPrompt, image)
	if err != nil {
		return "", err
	}
	return c.waitForTask(ctx, taskID)
}

// prompt appends the generation parameters the API reads from the text
// content.
func (c *Client) prompt(motionPrompt string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(motionPrompt))
	if c.cfg.Resolution != "" {
		fmt.Fprintf(&sb, " --resolution %s", c.cfg.Resolution)
	}
	if c.cfg.DurationSeconds > 0 {
		fmt.Fprintf(&sb, " --duration %d", c.cfg.DurationSeconds)
	}
	return sb.String()
}

func (c *Client) createTask(ctx context.Context, motionPrompt string, image []byte) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model": c.cfg.Model,
		"content": []contentPart{
			{Type: "text", Text: c.prompt(motionPrompt)},
			{Type: "image_url", ImageURL: &imageURL{
				URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
			}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("arkvideo: marshal request: %w", err)
	}
	var created taskCreated
	if err := c.callAPI(ctx, http.MethodPost, c.cfg.BaseURL+"/contents/generations/tasks", payload, &created); err != nil {
		return "", err
	}
	if created.Error != nil {
		return "", fmt.Errorf("arkvideo: api error %s: %s", created.Error.Code, created.Error.Message)
	}
	if strings.TrimSpace(created.ID) == "" {
		return "", errors.New("arkvideo: create task response missing id")
	}
	return created.ID, nil
}

func (c *Client) waitForTask(ctx context.Context, taskID string) (string, error) {
	deadline := c.now().Add(c.cfg.MaxWait)
	for {
		var state taskState
		if err := c.callAPI(ctx, http.MethodGet, c.cfg.BaseURL+"/contents/generations/tasks/"+taskID, nil, &state); err != nil {
			return "", err
		}
		switch state.Status {
		case "succeeded":
			videoURL := strings.TrimSpace(state.Content.VideoURL)
			if videoURL == "" {
				return "", fmt.Errorf("arkvideo: task %s succeeded without a video url", taskID)
			}
			return videoURL, nil
		case "failed", "cancelled":
			if state.Error != nil {
				return "", fmt.Errorf("arkvideo: task %s %s: %s: %s", taskID, state.Status, state.Error.Code, state.Error.Message)
			}
			return "", fmt.Errorf("arkvideo: task %s %s", taskID, state.Status)
		}
		if c.now().After(deadline) {
			return "", fmt.Errorf("%w: task %s still %q after %s", ErrTimeout, taskID, state.Status, c.cfg.MaxWait)
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
		return fmt.Errorf("arkvideo: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("arkvideo: request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("arkvideo: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("arkvideo: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("arkvideo: decode response: %w", err)
		}
	}
	return nil
}
