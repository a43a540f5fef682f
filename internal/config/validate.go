package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if c.Extraction.Token == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/paperreel/config.toml"
		}
		return fmt.Errorf("extraction.token is required. Set MINERU_TOKEN env var or edit %s (create with 'paperreel config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		return errors.New("llm.api_key must be set (or set OPENROUTER_API_KEY)")
	}
	return nil
}

func (c *Config) validateProviders() error {
	if c.Image.APIKey == "" {
		return errors.New("image.api_key must be set (or set ARK_API_KEY)")
	}
	if c.Video.APIKey == "" {
		return errors.New("video.api_key must be set (or set ARK_API_KEY)")
	}
	return nil
}

func (c *Config) validateTTS() error {
	switch c.TTS.Provider {
	case TTSProviderEdge:
	case TTSProviderBaidu:
		if strings.TrimSpace(c.TTS.BaiduAPIKey) == "" || strings.TrimSpace(c.TTS.BaiduSecretKey) == "" {
			return errors.New("tts.baidu_api_key and tts.baidu_secret_key must be set when tts.provider is \"baidu\"")
		}
		if c.TTS.BaiduSpeed < 0 || c.TTS.BaiduSpeed > 15 {
			return errors.New("tts.baidu_speed must be between 0 and 15")
		}
		if c.TTS.BaiduPitch < 0 || c.TTS.BaiduPitch > 15 {
			return errors.New("tts.baidu_pitch must be between 0 and 15")
		}
	default:
		return fmt.Errorf("tts.provider must be \"edge\" or \"baidu\", got %q", c.TTS.Provider)
	}
	return nil
}

func (c *Config) validateRender() error {
	switch c.Render.FrameFaultPolicy {
	case FaultPolicySkip, FaultPolicyAbort:
	default:
		return fmt.Errorf("render.frame_fault_policy must be \"skip\" or \"abort\", got %q", c.Render.FrameFaultPolicy)
	}
	if c.Render.FontSize <= 0 {
		return errors.New("render.font_size must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"extraction.poll_interval":      c.Extraction.PollInterval,
		"extraction.max_wait":           c.Extraction.MaxWait,
		"video.poll_interval":           c.Video.PollInterval,
		"video.max_wait":                c.Video.MaxWait,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.DedupWindowSeconds < 0 {
		return errors.New("notifications.dedup_window_seconds must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
