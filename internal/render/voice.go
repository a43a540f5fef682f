package render

import (
	"context"
	"os"
	"os/exec"

	"log/slog"

	"paperreel/internal/config"
	"paperreel/internal/logging"
	"paperreel/internal/media/ffmpeg"
	"paperreel/internal/queue"
	"paperreel/internal/services"
	"paperreel/internal/stage"
)

// Voicer muxes each frame's narration into its captioned clip. A frame
// must have both a captioned clip and an audio track; anything less is
// skipped and therefore excluded from the final merge.
type Voicer struct {
	stageBase
	compositor Compositor
}

// NewVoicer constructs the voicing stage handler.
func NewVoicer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Voicer {
	return NewVoicerWithDependencies(cfg, store, logger, ffmpeg.NewService(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
}

// NewVoicerWithDependencies allows injecting collaborators (used in tests).
func NewVoicerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, compositor Compositor) *Voicer {
	return &Voicer{stageBase: newStageBase(cfg, store, logger, "voicing"), compositor: compositor}
}

func (v *Voicer) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Voicing", "Preparing audio mux")
	return nil
}

func (v *Voicer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, v.logger)
	env, err := v.loadFrames(item, "voicing")
	if err != nil {
		return err
	}
	layout := v.layout(item)
	if err := os.MkdirAll(layout.VoicedDir(), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "voicing", "create voiced dir",
			"Failed to create voiced directory", err)
	}

	total := len(env.Frames)
	for i := range env.Frames {
		frame := &env.Frames[i]
		frameLogger := logger.With(logging.Int(logging.FieldFrameID, frame.FrameID))
		if frame.CaptionedFile == "" {
			frameLogger.Info("no captioned clip, skipping voicing")
			continue
		}
		if frame.AudioFile == "" {
			frameLogger.Info("no narration audio, skipping voicing")
			continue
		}
		if frame.VoicedFile != "" {
			if _, err := os.Stat(frame.VoicedFile); err == nil {
				frameLogger.Info("voiced clip already present, skipping")
				continue
			}
			frame.VoicedFile = ""
		}

		target := layout.FrameVoiced(frame.FrameID)
		if err := v.compositor.MuxAudio(ctx, frame.CaptionedFile, frame.AudioFile, target); err != nil {
			if v.abortOnFrameFault() {
				return services.Wrap(services.ErrExternalTool, "voicing", "mux narration",
					"Audio mux failed", err)
			}
			frameLogger.Warn("audio mux failed, frame will be dropped", logging.Error(err))
			continue
		}
		frame.VoicedFile = target
		frameLogger.Info("narration muxed", logging.String("voiced_file", target))

		item.SetProgress("Voicing", frameMessage("Voiced", i+1, total), frameProgress(i+1, total))
		v.persistFrames(ctx, item, env)
	}

	v.persistFrames(ctx, item, env)
	item.SetProgressComplete("Voiced", "Frame narration muxed")
	return nil
}

// HealthCheck verifies ffmpeg is available.
func (v *Voicer) HealthCheck(ctx context.Context) stage.Health {
	const name = "voicing"
	if v.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if v.compositor == nil {
		return stage.Unhealthy(name, "compositor unavailable")
	}
	if _, err := exec.LookPath(v.compositor.Binary()); err != nil {
		return stage.Unhealthy(name, "ffmpeg not found on PATH")
	}
	return stage.Healthy(name)
}

var _ stage.Handler = (*Voicer)(nil)
