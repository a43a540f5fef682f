package workflow

import (
	"context"
	"errors"
	"fmt"

	"paperreel/internal/logging"
	"paperreel/internal/queue"
)

func (m *Manager) notifyStageFailure(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	if m.notifier == nil || stageErr == nil {
		return
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(m.logger, "workflow-manager"))
	var err error
	if item.Status == queue.StatusReview {
		err = m.notifier.NotifyReviewRequired(ctx, item.Title, item.ReviewReason)
	} else {
		err = m.notifier.NotifyError(ctx, stageErr, fmt.Sprintf("%s (task #%d)", stageName, item.ID))
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send failure notification")
		} else {
			logger.Debug("stage failure notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) onItemStarted(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	m.mu.Lock()
	if m.queueActive {
		m.mu.Unlock()
		return
	}
	m.queueActive = true
	m.mu.Unlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.logger.Warn("queue stats unavailable for start notification", logging.Error(err))
		}
		return
	}
	if err := m.notifier.NotifyQueueStarted(ctx, countWorkItems(stats)); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Debug("queue start notification failed", logging.Error(err))
	}
}

func (m *Manager) checkQueueCompletion(ctx context.Context) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.logger.Warn("queue stats unavailable for completion check", logging.Error(err))
		}
		return
	}
	if countWorkItems(stats) > 0 {
		return
	}
	m.mu.Lock()
	m.queueActive = false
	m.mu.Unlock()
}

func countWorkItems(stats map[queue.Status]int) int {
	total := 0
	for status, count := range stats {
		if queue.IsTerminal(status) {
			continue
		}
		total += count
	}
	return total
}
