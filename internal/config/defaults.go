package config

const (
	defaultStagingDir = "~/.local/share/paperreel/staging"
	defaultLogDir     = "~/.local/share/paperreel/logs"
	defaultAPIBind    = "127.0.0.1:7787"

	defaultExtractionBaseURL      = "https://mineru.net/api/v4"
	defaultExtractionPollInterval = 5
	defaultExtractionMaxWait      = 600

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "deepseek/deepseek-chat-v3-0324"
	defaultLLMTitle          = "Paperreel Storyboard"
	defaultLLMTimeoutSeconds = 120

	defaultImageBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	defaultImageModel   = "doubao-seedream-4-0-250828"
	defaultImageSize    = "720x1280"

	defaultVideoBaseURL         = "https://ark.cn-beijing.volces.com/api/v3"
	defaultVideoModel           = "doubao-seedance-1-0-lite-i2v-250428"
	defaultVideoResolution      = "720p"
	defaultVideoDurationSeconds = 5
	defaultVideoPollInterval    = 1
	defaultVideoMaxWait         = 600

	defaultTTSProvider  = "edge"
	defaultEdgeVoice    = "zh-CN-XiaoxiaoNeural"
	defaultEdgeBinary   = "edge-tts"
	defaultBaiduSpeed   = 5
	defaultBaiduPitch   = 5
	defaultBaiduVolume  = 5
	defaultBaiduVoice   = 0
	defaultFaultPolicy  = "skip"
	defaultFontSize     = 36
	defaultCaptionWidth = 20

	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultWorkflowHeartbeatInterval = 15
	defaultWorkflowHeartbeatTimeout  = 120
	defaultNotifyDedupWindowSeconds  = 600
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Extraction: Extraction{
			BaseURL:      defaultExtractionBaseURL,
			EnableOCR:    true,
			PollInterval: defaultExtractionPollInterval,
			MaxWait:      defaultExtractionMaxWait,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Image: Image{
			BaseURL: defaultImageBaseURL,
			Model:   defaultImageModel,
			Size:    defaultImageSize,
		},
		Video: Video{
			BaseURL:         defaultVideoBaseURL,
			Model:           defaultVideoModel,
			Resolution:      defaultVideoResolution,
			DurationSeconds: defaultVideoDurationSeconds,
			PollInterval:    defaultVideoPollInterval,
			MaxWait:         defaultVideoMaxWait,
		},
		TTS: TTS{
			Provider:    defaultTTSProvider,
			EdgeVoice:   defaultEdgeVoice,
			EdgeBinary:  defaultEdgeBinary,
			BaiduVoice:  defaultBaiduVoice,
			BaiduSpeed:  defaultBaiduSpeed,
			BaiduPitch:  defaultBaiduPitch,
			BaiduVolume: defaultBaiduVolume,
		},
		Render: Render{
			FrameFaultPolicy: defaultFaultPolicy,
			FontSize:         defaultFontSize,
			CaptionWidth:     defaultCaptionWidth,
		},
		Notifications: Notifications{
			RequestTimeout:     10,
			Extraction:         true,
			Storyboard:         true,
			Render:             true,
			Queue:              true,
			Errors:             true,
			DedupWindowSeconds: defaultNotifyDedupWindowSeconds,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:   defaultWorkflowHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
