package deps

import (
	"paperreel/internal/config"
)

// Requirements lists the external binaries the current configuration
// will execute. The edge-tts binary is only required when narration is
// configured to use it.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	requirements := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Burns captions, muxes narration, and merges clips",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Measures clip durations for audio padding",
		},
	}
	if cfg.TTS.Provider != config.TTSProviderBaidu {
		requirements = append(requirements, Requirement{
			Name:        "edge-tts",
			Command:     cfg.TTS.EdgeBinary,
			Description: "Synthesizes narration audio",
		})
	}
	return requirements
}

// Check evaluates the configured requirements in one call.
func Check(cfg *config.Config) []Status {
	return CheckBinaries(Requirements(cfg))
}
