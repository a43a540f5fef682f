package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeLLM()
	c.normalizeImage()
	c.normalizeVideo()
	c.normalizeTTS()
	c.normalizeRender()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeExtraction() {
	c.Extraction.BaseURL = strings.TrimRight(strings.TrimSpace(c.Extraction.BaseURL), "/")
	if c.Extraction.BaseURL == "" {
		c.Extraction.BaseURL = defaultExtractionBaseURL
	}
	c.Extraction.Token = strings.TrimSpace(c.Extraction.Token)
	if c.Extraction.Token == "" {
		if value, ok := os.LookupEnv("MINERU_TOKEN"); ok {
			c.Extraction.Token = strings.TrimSpace(value)
		}
	}
	if c.Extraction.PollInterval <= 0 {
		c.Extraction.PollInterval = defaultExtractionPollInterval
	}
	if c.Extraction.MaxWait <= 0 {
		c.Extraction.MaxWait = defaultExtractionMaxWait
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("DEEPSEEK_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeImage() {
	c.Image.BaseURL = strings.TrimRight(strings.TrimSpace(c.Image.BaseURL), "/")
	if c.Image.BaseURL == "" {
		c.Image.BaseURL = defaultImageBaseURL
	}
	c.Image.Model = strings.TrimSpace(c.Image.Model)
	if c.Image.Model == "" {
		c.Image.Model = defaultImageModel
	}
	c.Image.Size = strings.TrimSpace(c.Image.Size)
	if c.Image.Size == "" {
		c.Image.Size = defaultImageSize
	}
	c.Image.APIKey = strings.TrimSpace(c.Image.APIKey)
	if c.Image.APIKey == "" {
		if value, ok := os.LookupEnv("ARK_API_KEY"); ok {
			c.Image.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeVideo() {
	c.Video.BaseURL = strings.TrimRight(strings.TrimSpace(c.Video.BaseURL), "/")
	if c.Video.BaseURL == "" {
		c.Video.BaseURL = defaultVideoBaseURL
	}
	c.Video.Model = strings.TrimSpace(c.Video.Model)
	if c.Video.Model == "" {
		c.Video.Model = defaultVideoModel
	}
	c.Video.Resolution = strings.TrimSpace(c.Video.Resolution)
	if c.Video.Resolution == "" {
		c.Video.Resolution = defaultVideoResolution
	}
	if c.Video.DurationSeconds <= 0 {
		c.Video.DurationSeconds = defaultVideoDurationSeconds
	}
	if c.Video.PollInterval <= 0 {
		c.Video.PollInterval = defaultVideoPollInterval
	}
	if c.Video.MaxWait <= 0 {
		c.Video.MaxWait = defaultVideoMaxWait
	}
	c.Video.APIKey = strings.TrimSpace(c.Video.APIKey)
	if c.Video.APIKey == "" {
		if value, ok := os.LookupEnv("ARK_API_KEY"); ok {
			c.Video.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeTTS() {
	c.TTS.Provider = strings.ToLower(strings.TrimSpace(c.TTS.Provider))
	if c.TTS.Provider == "" {
		c.TTS.Provider = defaultTTSProvider
	}
	c.TTS.EdgeVoice = strings.TrimSpace(c.TTS.EdgeVoice)
	if c.TTS.EdgeVoice == "" {
		c.TTS.EdgeVoice = defaultEdgeVoice
	}
	c.TTS.EdgeBinary = strings.TrimSpace(c.TTS.EdgeBinary)
	if c.TTS.EdgeBinary == "" {
		c.TTS.EdgeBinary = defaultEdgeBinary
	}
	c.TTS.BaiduAPIKey = strings.TrimSpace(c.TTS.BaiduAPIKey)
	if c.TTS.BaiduAPIKey == "" {
		if value, ok := os.LookupEnv("BAIDU_TTS_API_KEY"); ok {
			c.TTS.BaiduAPIKey = strings.TrimSpace(value)
		}
	}
	c.TTS.BaiduSecretKey = strings.TrimSpace(c.TTS.BaiduSecretKey)
	if c.TTS.BaiduSecretKey == "" {
		if value, ok := os.LookupEnv("BAIDU_TTS_SECRET_KEY"); ok {
			c.TTS.BaiduSecretKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeRender() {
	c.Render.FrameFaultPolicy = strings.ToLower(strings.TrimSpace(c.Render.FrameFaultPolicy))
	if c.Render.FrameFaultPolicy == "" {
		c.Render.FrameFaultPolicy = defaultFaultPolicy
	}
	c.Render.FontFile = strings.TrimSpace(c.Render.FontFile)
	if c.Render.FontSize <= 0 {
		c.Render.FontSize = defaultFontSize
	}
	if c.Render.CaptionWidth <= 0 {
		c.Render.CaptionWidth = defaultCaptionWidth
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
