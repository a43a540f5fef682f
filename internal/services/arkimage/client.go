package arkimage

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
	defaultBaseURL     = "https://ark.cn-beijing.volces.com/api/v3"
	defaultHTTPTimeout = 120 * time.Second
)

// Config captures the runtime settings required to talk to the image API.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Size      string
	Watermark bool
}

// Client wraps the Ark image generation API.
type Client struct {
	cfg        Config
	httpClient *http.Client
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

// NewClient constructs an image client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:    strings.TrimSpace(cfg.APIKey),
			BaseURL:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:     strings.TrimSpace(cfg.Model),
			Size:      strings.TrimSpace(cfg.Size),
			Watermark: cfg.Watermark,
		},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

type generationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format"`
	Watermark      bool   `json:"watermark"`
}

type generationResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate renders a prompt and returns the image bytes.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := json.Marshal(generationRequest{
		Model:          c.cfg.Model,
		Prompt:         prompt,
		Size:           c.cfg.Size,
		ResponseFormat: "url",
		Watermark:      c.cfg.Watermark,
	})
	if err != nil {
		return nil, fmt.Errorf("arkimage: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("arkimage: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arkimage: request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("arkimage: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arkimage: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	var decoded generationResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("arkimage: decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("arkimage: api error %s: %s", decoded.Error.Code, decoded.Error.Message)
	}
	if len(decoded.Data) == 0 {
		return nil, errors.New("arkimage: response contains no image")
	}
	if encoded := strings.TrimSpace(decoded.Data[0].B64JSON); encoded != "" {
		image, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("arkimage: decode inline image: %w", err)
		}
		return image, nil
	}
	imageURL := strings.TrimSpace(decoded.Data[0].URL)
	if imageURL == "" {
		return nil, errors.New("arkimage: response image has no url")
	}
	return c.download(ctx, imageURL)
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("arkimage: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arkimage: download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arkimage: download returned status %d", resp.StatusCode)
	}
	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("arkimage: read image: %w", err)
	}
	return image, nil
}
