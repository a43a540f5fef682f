package render

import (
	"context"
	"fmt"
	"sort"

	"log/slog"

	"paperreel/internal/config"
	"paperreel/internal/frames"
	"paperreel/internal/logging"
	"paperreel/internal/queue"
	"paperreel/internal/services"
)

// stageBase carries the collaborators shared by every render stage.
type stageBase struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
}

func newStageBase(cfg *config.Config, store *queue.Store, logger *slog.Logger, component string) stageBase {
	return stageBase{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, component),
	}
}

// abortOnFrameFault reports whether a per-frame failure should fail
// the whole task instead of dropping the frame.
func (b stageBase) abortOnFrameFault() bool {
	return b.cfg != nil && b.cfg.Render.FrameFaultPolicy == config.FaultPolicyAbort
}

func (b stageBase) layout(item *queue.Item) queue.Layout {
	return item.Layout(b.cfg.Paths.StagingDir)
}

// loadFrames decodes the item's frame envelope and sorts it by frame
// id so every stage walks frames in storyboard order.
func (b stageBase) loadFrames(item *queue.Item, stageName string) (frames.Envelope, error) {
	env, err := frames.Decode(item.FramesJSON)
	if err != nil {
		return frames.Envelope{}, services.Wrap(
			services.ErrValidation, stageName, "parse frames",
			"Frame envelope missing or invalid; rerun storyboarding", err)
	}
	if len(env.Frames) == 0 {
		return frames.Envelope{}, services.Wrap(
			services.ErrValidation, stageName, "validate frames",
			"No storyboard frames present; rerun storyboarding", nil)
	}
	sort.Slice(env.Frames, func(i, j int) bool { return env.Frames[i].FrameID < env.Frames[j].FrameID })
	return env, nil
}

// persistFrames stores the updated envelope on the item so a daemon
// restart resumes from the last finished frame. Persistence failures
// are logged, not fatal.
func (b stageBase) persistFrames(ctx context.Context, item *queue.Item, env frames.Envelope) {
	encoded, err := env.Encode()
	if err != nil {
		logging.WithContext(ctx, b.logger).Warn("failed to encode frame envelope", logging.Error(err))
		return
	}
	item.FramesJSON = encoded
	if b.store == nil {
		return
	}
	if err := b.store.Update(ctx, item); err != nil {
		logging.WithContext(ctx, b.logger).Warn("failed to persist frame progress", logging.Error(err))
	}
}

// frameProgress spreads per-frame progress across the middle of the
// stage's percent range.
func frameProgress(done, total int) float64 {
	if total <= 0 {
		return 100
	}
	return 10 + 85*float64(done)/float64(total)
}

func frameMessage(verb string, done, total int) string {
	return fmt.Sprintf("%s frame %d of %d", verb, done, total)
}
