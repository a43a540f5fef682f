package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Extraction contains configuration for the MinerU document extraction API.
type Extraction struct {
	BaseURL      string `toml:"base_url"`
	Token        string `toml:"token"`
	EnableOCR    bool   `toml:"enable_ocr"`
	PollInterval int    `toml:"poll_interval"`
	MaxWait      int    `toml:"max_wait"`
}

// LLM contains connection settings for the storyboard model.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Image contains configuration for the text-to-image provider.
type Image struct {
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	Size      string `toml:"size"`
	Watermark bool   `toml:"watermark"`
}

// Video contains configuration for the image-to-video provider.
type Video struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	Model           string `toml:"model"`
	Resolution      string `toml:"resolution"`
	DurationSeconds int    `toml:"duration_seconds"`
	PollInterval    int    `toml:"poll_interval"`
	MaxWait         int    `toml:"max_wait"`
}

// Speech providers accepted by TTS.Provider.
const (
	TTSProviderEdge  = "edge"
	TTSProviderBaidu = "baidu"
)

// TTS contains configuration for narration synthesis. Provider selects
// between the local edge-tts binary and the Baidu speech API.
type TTS struct {
	Provider       string `toml:"provider"`
	EdgeVoice      string `toml:"edge_voice"`
	EdgeBinary     string `toml:"edge_binary"`
	BaiduAPIKey    string `toml:"baidu_api_key"`
	BaiduSecretKey string `toml:"baidu_secret_key"`
	BaiduVoice     int    `toml:"baidu_voice"`
	BaiduSpeed     int    `toml:"baidu_speed"`
	BaiduPitch     int    `toml:"baidu_pitch"`
	BaiduVolume    int    `toml:"baidu_volume"`
}

// Frame fault policies accepted by Render.FrameFaultPolicy.
const (
	FaultPolicySkip  = "skip"
	FaultPolicyAbort = "abort"
)

// Render contains caption styling and per-frame failure policy.
type Render struct {
	// FrameFaultPolicy is "skip" to drop failed frames from the final
	// video or "abort" to fail the whole task on the first frame error.
	FrameFaultPolicy string `toml:"frame_fault_policy"`
	FontFile         string `toml:"font_file"`
	FontSize         int    `toml:"font_size"`
	// CaptionWidth is the maximum caption line width in display cells,
	// where a CJK rune counts as two cells.
	CaptionWidth int `toml:"caption_width"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeout     int    `toml:"request_timeout"`
	Extraction         bool   `toml:"extraction"`
	Storyboard         bool   `toml:"storyboard"`
	Render             bool   `toml:"render"`
	Queue              bool   `toml:"queue"`
	Errors             bool   `toml:"errors"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the pipeline.
//
// Configuration sections by subsystem:
//   - Paths: staging/log directories and API bind address
//   - Extraction: MinerU PDF-to-markdown extraction
//   - LLM: storyboard generation model connection
//   - Image: text-to-image provider
//   - Video: image-to-video provider
//   - TTS: narration synthesis provider
//   - Render: caption styling and per-frame failure policy
//   - Notifications: ntfy push notification settings
//   - Workflow: daemon polling intervals and timeouts
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Extraction    Extraction    `toml:"extraction"`
	LLM           LLM           `toml:"llm"`
	Image         Image         `toml:"image"`
	Video         Video         `toml:"video"`
	TTS           TTS           `toml:"tts"`
	Render        Render        `toml:"render"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/paperreel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("paperreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for rendering.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
