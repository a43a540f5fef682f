package render

import (
	"context"
	"os"
	"strings"
	"time"

	"log/slog"

	"paperreel/internal/config"
	"paperreel/internal/logging"
	"paperreel/internal/queue"
	"paperreel/internal/services"
	"paperreel/internal/services/arkvideo"
	"paperreel/internal/stage"
)

// VideoClient is the image-to-video surface the animation stage depends on.
type VideoClient interface {
	Generate(ctx context.Context, motionPrompt string, image []byte) (string, error)
}

// Animator turns each frame's still image into a short video clip.
type Animator struct {
	stageBase
	client VideoClient
}

// NewAnimator constructs the animation stage handler using default dependencies.
func NewAnimator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Animator {
	client := arkvideo.NewClient(arkvideo.Config{
		APIKey:          cfg.Video.APIKey,
		BaseURL:         cfg.Video.BaseURL,
		Model:           cfg.Video.Model,
		Resolution:      cfg.Video.Resolution,
		DurationSeconds: cfg.Video.DurationSeconds,
		PollInterval:    time.Duration(cfg.Video.PollInterval) * time.Second,
		MaxWait:         time.Duration(cfg.Video.MaxWait) * time.Second,
	})
	return NewAnimatorWithDependencies(cfg, store, logger, client)
}

// NewAnimatorWithDependencies allows injecting collaborators (used in tests).
func NewAnimatorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client VideoClient) *Animator {
	return &Animator{stageBase: newStageBase(cfg, store, logger, "animation"), client: client}
}

func (a *Animator) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Animating", "Preparing video generation")
	return nil
}

func (a *Animator) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, a.logger)
	env, err := a.loadFrames(item, "animating")
	if err != nil {
		return err
	}

	total := len(env.Frames)
	for i := range env.Frames {
		frame := &env.Frames[i]
		frameLogger := logger.With(logging.Int(logging.FieldFrameID, frame.FrameID))
		if frame.ImageFile == "" {
			frameLogger.Info("no image for frame, skipping animation")
			continue
		}
		if frame.VideoURL != "" {
			frameLogger.Info("video already generated, skipping")
			continue
		}

		image, err := os.ReadFile(frame.ImageFile)
		if err != nil {
			if a.abortOnFrameFault() {
				return services.Wrap(services.ErrTransient, "animating", "read image",
					"Failed to read frame image", err)
			}
			frameLogger.Warn("frame image unreadable, frame will be dropped", logging.Error(err))
			continue
		}
		videoURL, err := a.client.Generate(ctx, frame.MotionPrompt, image)
		if err != nil {
			if a.abortOnFrameFault() {
				return services.Wrap(services.ErrExternalTool, "animating", "generate video",
					"Video generation failed", err)
			}
			frameLogger.Warn("video generation failed, frame will be dropped", logging.Error(err))
			continue
		}
		frame.VideoURL = videoURL
		frameLogger.Info("video generated", logging.String("video_url", videoURL))

		item.SetProgress("Animating", frameMessage("Generated video for", i+1, total), frameProgress(i+1, total))
		a.persistFrames(ctx, item, env)
	}

	a.persistFrames(ctx, item, env)
	item.SetProgressComplete("Animated", "Frame videos generated")
	return nil
}

// HealthCheck verifies the video API credentials are configured.
func (a *Animator) HealthCheck(ctx context.Context) stage.Health {
	const name = "animation"
	if a.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(a.cfg.Video.APIKey) == "" {
		return stage.Unhealthy(name, "video api key not configured")
	}
	if a.client == nil {
		return stage.Unhealthy(name, "video client unavailable")
	}
	return stage.Healthy(name)
}

var _ stage.Handler = (*Animator)(nil)
