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
	"paperreel/internal/services/arkimage"
	"paperreel/internal/stage"
)

// ImageClient is the text-to-image surface the imaging stage depends on.
type ImageClient interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Imager renders one still image per storyboard frame.
type Imager struct {
	stageBase
	client ImageClient
}

// NewImager constructs the imaging stage handler using default dependencies.
func NewImager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Imager {
	client := arkimage.NewClient(arkimage.Config{
		APIKey:    cfg.Image.APIKey,
		BaseURL:   cfg.Image.BaseURL,
		Model:     cfg.Image.Model,
		Size:      cfg.Image.Size,
		Watermark: cfg.Image.Watermark,
	})
	return NewImagerWithDependencies(cfg, store, logger, client)
}

// NewImagerWithDependencies allows injecting collaborators (used in tests).
func NewImagerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client ImageClient) *Imager {
	return &Imager{stageBase: newStageBase(cfg, store, logger, "imaging"), client: client}
}

func (im *Imager) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Imaging", "Preparing image generation")
	return nil
}

func (im *Imager) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, im.logger)
	env, err := im.loadFrames(item, "imaging")
	if err != nil {
		return err
	}
	layout := im.layout(item)
	if err := os.MkdirAll(layout.ImagesDir(), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "imaging", "create images dir",
			"Failed to create images directory", err)
	}

	total := len(env.Frames)
	for i := range env.Frames {
		frame := &env.Frames[i]
		frameLogger := logger.With(logging.Int(logging.FieldFrameID, frame.FrameID))

		// Resume support: keep images produced before a restart.
		if frame.ImageFile != "" {
			if _, err := os.Stat(frame.ImageFile); err == nil {
				frameLogger.Info("image already present, skipping")
				continue
			}
			frame.ImageFile = ""
		}

		image, err := im.client.Generate(ctx, frame.VisualDescription)
		if err != nil {
			if im.abortOnFrameFault() {
				return services.Wrap(services.ErrExternalTool, "imaging", "generate image",
					"Image generation failed", err)
			}
			frameLogger.Warn("image generation failed, frame will be dropped", logging.Error(err))
			continue
		}
		target := layout.FrameImage(frame.FrameID)
		if err := os.WriteFile(target, image, 0o644); err != nil {
			if im.abortOnFrameFault() {
				return services.Wrap(services.ErrTransient, "imaging", "write image",
					"Failed to write generated image", err)
			}
			frameLogger.Warn("image write failed, frame will be dropped", logging.Error(err))
			continue
		}
		frame.ImageFile = target
		frameLogger.Info("image generated", logging.String("image_file", target))

		item.SetProgress("Imaging", frameMessage("Generated image for", i+1, total), frameProgress(i+1, total))
		im.persistFrames(ctx, item, env)
	}

	im.persistFrames(ctx, item, env)
	item.SetProgressComplete("Imaged", "Frame images generated")
	return nil
}

// HealthCheck verifies the image API credentials are configured.
func (im *Imager) HealthCheck(ctx context.Context) stage.Health {
	const name = "imaging"
	if im.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(im.cfg.Image.APIKey) == "" {
		return stage.Unhealthy(name, "image api key not configured")
	}
	if im.client == nil {
		return stage.Unhealthy(name, "image client unavailable")
	}
	return stage.Healthy(name)
}

var _ stage.Handler = (*Imager)(nil)
