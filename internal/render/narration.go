package render

import (
	"context"
	"os"
	"strings"

	"log/slog"

	"paperreel/internal/config"
	"paperreel/internal/logging"
	"paperreel/internal/queue"
	"paperreel/internal/services"
	"paperreel/internal/services/speech"
	"paperreel/internal/stage"
)

// Narrator synthesizes one narration track per frame. Synthesis
// failures never fail the task: the frame simply proceeds without
// audio and is excluded from the merge by the voicing stage.
type Narrator struct {
	stageBase
	synth speech.Synthesizer
}

// NewNarrator constructs the narration stage handler using the
// configured speech provider.
func NewNarrator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Narrator {
	return NewNarratorWithDependencies(cfg, store, logger, NewSynthesizer(cfg))
}

// NewSynthesizer picks the speech backend from configuration.
func NewSynthesizer(cfg *config.Config) speech.Synthesizer {
	if cfg.TTS.Provider == config.TTSProviderBaidu {
		return speech.NewBaiduSynthesizer(speech.BaiduConfig{
			APIKey:    cfg.TTS.BaiduAPIKey,
			SecretKey: cfg.TTS.BaiduSecretKey,
			Voice:     cfg.TTS.BaiduVoice,
			Speed:     cfg.TTS.BaiduSpeed,
			Pitch:     cfg.TTS.BaiduPitch,
			Volume:    cfg.TTS.BaiduVolume,
		})
	}
	return speech.NewEdgeSynthesizer(cfg.TTS.EdgeBinary, cfg.TTS.EdgeVoice)
}

// NewNarratorWithDependencies allows injecting collaborators (used in tests).
func NewNarratorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, synth speech.Synthesizer) *Narrator {
	return &Narrator{stageBase: newStageBase(cfg, store, logger, "narration"), synth: synth}
}

func (n *Narrator) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Narrating", "Preparing speech synthesis")
	return nil
}

func (n *Narrator) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, n.logger)
	env, err := n.loadFrames(item, "narrating")
	if err != nil {
		return err
	}
	layout := n.layout(item)
	if err := os.MkdirAll(layout.AudioDir(), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "narrating", "create audio dir",
			"Failed to create audio directory", err)
	}

	total := len(env.Frames)
	for i := range env.Frames {
		frame := &env.Frames[i]
		frameLogger := logger.With(logging.Int(logging.FieldFrameID, frame.FrameID))
		if strings.TrimSpace(frame.Voiceover) == "" {
			frameLogger.Info("no narration text, skipping synthesis")
			continue
		}
		if frame.AudioFile != "" {
			if _, err := os.Stat(frame.AudioFile); err == nil {
				frameLogger.Info("narration already present, skipping")
				continue
			}
			frame.AudioFile = ""
		}

		target := layout.FrameAudio(frame.FrameID)
		if err := n.synth.Synthesize(ctx, frame.Voiceover, target); err != nil {
			frameLogger.Warn("speech synthesis failed, frame continues without audio", logging.Error(err))
			continue
		}
		frame.AudioFile = target
		frameLogger.Info("narration synthesized", logging.String("audio_file", target))

		item.SetProgress("Narrating", frameMessage("Synthesized narration for", i+1, total), frameProgress(i+1, total))
		n.persistFrames(ctx, item, env)
	}

	n.persistFrames(ctx, item, env)
	item.SetProgressComplete("Narrated", "Frame narration synthesized")
	return nil
}

// HealthCheck verifies the configured speech backend credentials.
func (n *Narrator) HealthCheck(ctx context.Context) stage.Health {
	const name = "narration"
	if n.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	switch n.cfg.TTS.Provider {
	case config.TTSProviderBaidu:
		if strings.TrimSpace(n.cfg.TTS.BaiduAPIKey) == "" || strings.TrimSpace(n.cfg.TTS.BaiduSecretKey) == "" {
			return stage.Unhealthy(name, "baidu tts credentials not configured")
		}
	default:
		if strings.TrimSpace(n.cfg.TTS.EdgeVoice) == "" {
			return stage.Unhealthy(name, "edge tts voice not configured")
		}
	}
	if n.synth == nil {
		return stage.Unhealthy(name, "speech synthesizer unavailable")
	}
	return stage.Healthy(name)
}

var _ stage.Handler = (*Narrator)(nil)
