package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	baiduTokenURL     = "https://aip.baidubce.com/oauth/2.0/token"
	baiduSynthesisURL = "https://tsn.baidu.com/text2audio"
	baiduScope        = "audio_tts_post"
	baiduCUID         = "paperreel"

	// aue 3 selects mp3 output.
	baiduFormatMP3 = 3
)

// BaiduConfig captures the runtime settings for the Baidu speech API.
type BaiduConfig struct {
	APIKey    string
	SecretKey string
	Voice     int
	Speed     int
	Pitch     int
	Volume    int
}

// BaiduSynthesizer talks to the Baidu short text-to-speech API. Access
// tokens are fetched lazily and reused until shortly before expiry.
type BaiduSynthesizer struct {
	cfg        BaiduConfig
	httpClient *http.Client

	tokenURL     string
	synthesisURL string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// BaiduOption customizes a BaiduSynthesizer.
type BaiduOption func(*BaiduSynthesizer)

// WithBaiduHTTPClient overrides the default HTTP client.
func WithBaiduHTTPClient(client *http.Client) BaiduOption {
	return func(s *BaiduSynthesizer) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithBaiduEndpoints overrides the API endpoints (primarily for tests).
func WithBaiduEndpoints(tokenURL, synthesisURL string) BaiduOption {
	return func(s *BaiduSynthesizer) {
		if tokenURL != "" {
			s.tokenURL = tokenURL
		}
		if synthesisURL != "" {
			s.synthesisURL = synthesisURL
		}
	}
}

// NewBaiduSynthesizer constructs a synthesizer from credentials.
func NewBaiduSynthesizer(cfg BaiduConfig, opts ...BaiduOption) *BaiduSynthesizer {
	s := &BaiduSynthesizer{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		tokenURL:     baiduTokenURL,
		synthesisURL: baiduSynthesisURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize writes spoken audio for the text to outputPath.
func (s *BaiduSynthesizer) Synthesize(ctx context.Context, text, outputPath string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("speech: empty narration text")
	}
	token, err := s.accessToken(ctx)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("tex", text)
	form.Set("tok", token)
	form.Set("cuid", baiduCUID)
	form.Set("ctp", "1")
	form.Set("lan", "zh")
	form.Set("spd", strconv.Itoa(s.cfg.Speed))
	form.Set("pit", strconv.Itoa(s.cfg.Pitch))
	form.Set("vol", strconv.Itoa(s.cfg.Volume))
	form.Set("per", strconv.Itoa(s.cfg.Voice))
	form.Set("aue", strconv.Itoa(baiduFormatMP3))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.synthesisURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("speech: build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speech: synthesis request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("speech: read synthesis response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("speech: synthesis returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	// An error comes back as a JSON body instead of audio bytes.
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var apiErr struct {
			ErrNo  int    `json:"err_no"`
			ErrMsg string `json:"err_msg"`
		}
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.ErrNo != 0 {
			return fmt.Errorf("speech: synthesis error %d: %s", apiErr.ErrNo, apiErr.ErrMsg)
		}
		return fmt.Errorf("speech: synthesis returned json instead of audio: %s", strings.TrimSpace(string(data)))
	}
	if len(data) == 0 {
		return errors.New("speech: synthesis returned no audio")
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("speech: write audio: %w", err)
	}
	return nil
}

func (s *BaiduSynthesizer) accessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && time.Now().Before(s.tokenExpiry) {
		return s.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.cfg.APIKey)
	form.Set("client_secret", s.cfg.SecretKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("speech: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech: token request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("speech: read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech: token request returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var decoded struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		Scope       string `json:"scope"`
		Error       string `json:"error"`
		ErrorDesc   string `json:"error_description"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", fmt.Errorf("speech: decode token response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("speech: token request rejected: %s: %s", decoded.Error, decoded.ErrorDesc)
	}
	if decoded.AccessToken == "" {
		return "", errors.New("speech: token response missing access_token")
	}
	if !scopeGranted(decoded.Scope, baiduScope) {
		return "", fmt.Errorf("speech: credentials lack the %s scope", baiduScope)
	}

	s.token = decoded.AccessToken
	expiry := time.Duration(decoded.ExpiresIn) * time.Second
	if expiry <= time.Minute {
		expiry = time.Hour
	}
	s.tokenExpiry = time.Now().Add(expiry - time.Minute)
	return s.token, nil
}

func scopeGranted(granted, want string) bool {
	for _, scope := range strings.Fields(granted) {
		if scope == want {
			return true
		}
	}
	return false
}
