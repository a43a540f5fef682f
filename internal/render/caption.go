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

// Compositor is the video post-processing surface shared by the
// captioning, voicing, and merge stages.
type Compositor interface {
	AddCaption(ctx context.Context, input, output, caption string, style ffmpeg.CaptionStyle) error
	MuxAudio(ctx context.Context, video, audio, output string) error
	Concatenate(ctx context.Context, inputs []string, output string) error
	Binary() string
}

// Captioner burns each frame's narration text into its clip.
type Captioner struct {
	stageBase
	compositor Compositor
}

// NewCaptioner constructs the captioning stage handler.
func NewCaptioner(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Captioner {
	return NewCaptionerWithDependencies(cfg, store, logger, ffmpeg.NewService(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
}

// NewCaptionerWithDependencies allows injecting collaborators (used in tests).
func NewCaptionerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, compositor Compositor) *Captioner {
	return &Captioner{stageBase: newStageBase(cfg, store, logger, "captioning"), compositor: compositor}
}

func (c *Captioner) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Captioning", "Preparing caption burn-in")
	return nil
}

func (c *Captioner) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)
	env, err := c.loadFrames(item, "captioning")
	if err != nil {
		return err
	}
	layout := c.layout(item)
	if err := os.MkdirAll(layout.CaptionedDir(), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "captioning", "create captioned dir",
			"Failed to create captioned directory", err)
	}
	style := ffmpeg.CaptionStyle{
		FontFile:  c.cfg.Render.FontFile,
		FontSize:  c.cfg.Render.FontSize,
		LineWidth: c.cfg.Render.CaptionWidth,
	}

	total := len(env.Frames)
	for i := range env.Frames {
		frame := &env.Frames[i]
		frameLogger := logger.With(logging.Int(logging.FieldFrameID, frame.FrameID))
		if frame.VideoFile == "" {
			frameLogger.Info("no local video, skipping captioning")
			continue
		}
		if frame.CaptionedFile != "" {
			if _, err := os.Stat(frame.CaptionedFile); err == nil {
				frameLogger.Info("captioned clip already present, skipping")
				continue
			}
			frame.CaptionedFile = ""
		}

		target := layout.FrameCaptioned(frame.FrameID)
		if err := c.compositor.AddCaption(ctx, frame.VideoFile, target, frame.Voiceover, style); err != nil {
			if c.abortOnFrameFault() {
				return services.Wrap(services.ErrExternalTool, "captioning", "burn caption",
					"Caption burn-in failed", err)
			}
			frameLogger.Warn("caption burn-in failed, frame will be dropped", logging.Error(err))
			continue
		}
		frame.CaptionedFile = target
		frameLogger.Info("caption burned", logging.String("captioned_file", target))

		item.SetProgress("Captioning", frameMessage("Captioned", i+1, total), frameProgress(i+1, total))
		c.persistFrames(ctx, item, env)
	}

	c.persistFrames(ctx, item, env)
	item.SetProgressComplete("Captioned", "Frame captions burned")
	return nil
}

// HealthCheck verifies ffmpeg is available.
func (c *Captioner) HealthCheck(ctx context.Context) stage.Health {
	const name = "captioning"
	if c.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if c.compositor == nil {
		return stage.Unhealthy(name, "compositor unavailable")
	}
	if _, err := exec.LookPath(c.compositor.Binary()); err != nil {
		return stage.Unhealthy(name, "ffmpeg not found on PATH")
	}
	return stage.Healthy(name)
}

var _ stage.Handler = (*Captioner)(nil)
