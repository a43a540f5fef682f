package render

import (
	"context"
	"os/exec"

	"log/slog"

	"paperreel/internal/config"
	"paperreel/internal/logging"
	"paperreel/internal/media/ffmpeg"
	"paperreel/internal/notifications"
	"paperreel/internal/queue"
	"paperreel/internal/services"
	"paperreel/internal/stage"
)

// Merger concatenates all fully voiced clips into the final video,
// ordered strictly by frame id. A task with zero qualifying frames
// completes without a merged file; that is an empty result, not an
// error.
type Merger struct {
	stageBase
	compositor Compositor
	notifier   notifications.Service
}

// NewMerger constructs the merge stage handler.
func NewMerger(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Merger {
	return NewMergerWithDependencies(cfg, store, logger,
		ffmpeg.NewService(cfg.FFmpegBinary(), cfg.FFprobeBinary()), notifications.NewService(cfg))
}

// NewMergerWithDependencies allows injecting collaborators (used in tests).
func NewMergerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, compositor Compositor, notifier notifications.Service) *Merger {
	return &Merger{
		stageBase:  newStageBase(cfg, store, logger, "merging"),
		compositor: compositor,
		notifier:   notifier,
	}
}

func (m *Merger) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Merging", "Preparing final merge")
	return nil
}

func (m *Merger) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, m.logger)
	env, err := m.loadFrames(item, "merging")
	if err != nil {
		return err
	}

	voiced := env.Voiced()
	if len(voiced) == 0 {
		item.MergedFile = ""
		item.SetProgressComplete("Completed", "No frames qualified; task completed with empty result")
		logger.Warn("no voiced frames to merge, completing with empty result",
			logging.Int("frame_count", len(env.Frames)))
		return nil
	}

	inputs := make([]string, 0, len(voiced))
	for _, frame := range voiced {
		inputs = append(inputs, frame.VoicedFile)
	}
	layout := m.layout(item)

	item.SetProgress("Merging", frameMessage("Merging", len(inputs), len(env.Frames)), 50)
	if m.store != nil {
		if err := m.store.Update(ctx, item); err != nil {
			logger.Warn("failed to persist merge progress", logging.Error(err))
		}
	}

	if err := m.compositor.Concatenate(ctx, inputs, layout.MergedPath()); err != nil {
		return services.Wrap(services.ErrExternalTool, "merging", "concatenate clips",
			"Final merge failed", err)
	}
	item.MergedFile = layout.MergedPath()
	item.SetProgressComplete("Completed", "Final video merged")
	logger.Info("merge completed",
		logging.String("merged_file", item.MergedFile),
		logging.Int("segment_count", len(inputs)),
		logging.Int("dropped_frames", len(env.Frames)-len(inputs)),
	)

	if m.notifier != nil {
		if err := m.notifier.NotifyTaskCompleted(ctx, item.Title, item.MergedFile); err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies ffmpeg is available.
func (m *Merger) HealthCheck(ctx context.Context) stage.Health {
	const name = "merging"
	if m.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if m.compositor == nil {
		return stage.Unhealthy(name, "compositor unavailable")
	}
	if _, err := exec.LookPath(m.compositor.Binary()); err != nil {
		return stage.Unhealthy(name, "ffmpeg not found on PATH")
	}
	return stage.Healthy(name)
}

var _ stage.Handler = (*Merger)(nil)
