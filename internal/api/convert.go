package api

import (
	"sort"

	"paperreel/internal/deps"
	"paperreel/internal/queue"
	"paperreel/internal/workflow"
)

// FromItem converts a queue item to its API representation.
func FromItem(item *queue.Item) Task {
	if item == nil {
		return Task{}
	}
	task := Task{
		ID:             item.ID,
		TaskID:         item.TaskID,
		Title:          item.Title,
		DocumentURL:    item.DocumentURL,
		Status:         string(item.Status),
		ProcessingLane: string(queue.LaneForItem(item)),
		Progress: TaskProgress{
			Stage:   item.ProgressStage,
			Percent: item.ProgressPercent,
			Message: item.ProgressMessage,
		},
		ErrorMessage:   item.ErrorMessage,
		DocumentPath:   item.DocumentPath,
		StoryboardPath: item.StoryboardPath,
		MergedFile:     item.MergedFile,
		NeedsReview:    item.NeedsReview,
		ReviewReason:   item.ReviewReason,
	}
	if !item.CreatedAt.IsZero() {
		task.CreatedAt = item.CreatedAt.Format(dateTimeFormat)
	}
	if !item.UpdatedAt.IsZero() {
		task.UpdatedAt = item.UpdatedAt.Format(dateTimeFormat)
	}
	return task
}

// FromItems converts a slice of queue items.
func FromItems(items []*queue.Item) []Task {
	out := make([]Task, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to its API form.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Running:    summary.Running,
		LastError:  summary.LastError,
		QueueStats: make(map[string]int, len(summary.QueueStats)),
	}
	for key, value := range summary.QueueStats {
		status.QueueStats[string(key)] = value
	}
	if summary.LastItem != nil {
		item := FromItem(summary.LastItem)
		status.LastItem = &item
	}
	for name, health := range summary.StageHealth {
		status.StageHealth = append(status.StageHealth, StageHealth{
			Name:   name,
			Ready:  health.Ready,
			Detail: health.Detail,
		})
	}
	sort.Slice(status.StageHealth, func(i, j int) bool {
		return status.StageHealth[i].Name < status.StageHealth[j].Name
	})
	return status
}

// FromDependencyStatuses converts binary availability checks to their
// API form.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, DependencyStatus{
			Name:        st.Name,
			Command:     st.Command,
			Description: st.Description,
			Optional:    st.Optional,
			Available:   st.Available,
			Detail:      st.Detail,
		})
	}
	return out
}

// FromHealthSummary converts queue health counts to their API form.
func FromHealthSummary(summary queue.HealthSummary) QueueHealthResponse {
	return QueueHealthResponse{
		Total:      summary.Total,
		Pending:    summary.Pending,
		Processing: summary.Processing,
		Failed:     summary.Failed,
		Review:     summary.Review,
		Completed:  summary.Completed,
	}
}
