package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"paperreel/internal/logging"
	"paperreel/internal/queue"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(base, "workflow-manager"))

	message := failureMessage(stageName, stageErr)
	resolved := queue.FailureStatus(stageErr)
	if resolved == queue.StatusReview {
		item.Status = queue.StatusReview
		item.NeedsReview = true
		item.ReviewReason = message
		item.ErrorMessage = message
		item.ProgressStage = "Review"
		item.ProgressMessage = message
		item.LastHeartbeat = nil
	} else {
		item.SetFailed(message)
	}

	logger.Error("stage failed",
		logging.String("resolved_status", string(resolved)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.Error(stageErr),
	)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastItem(item)
	m.notifyStageFailure(ctx, stageName, item, stageErr)
	m.checkQueueCompletion(ctx)
}

func failureMessage(stageName string, stageErr error) string {
	if stageErr != nil {
		if message := strings.TrimSpace(stageErr.Error()); message != "" {
			return message
		}
	}
	if stageName != "" {
		return fmt.Sprintf("%s failed", stageName)
	}
	return "workflow stage failed"
}
