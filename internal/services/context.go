package services

import "context"

type contextKey string

const (
	taskIDKey        contextKey = "task_id"
	stageKey         contextKey = "stage"
	laneKey          contextKey = "lane"
	correlationIDKey contextKey = "correlation_id"
)

// WithTaskID attaches the queue item identifier to the context.
func WithTaskID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, taskIDKey, id)
}

// TaskIDFrom extracts the queue item identifier, if present.
func TaskIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(taskIDKey).(int64)
	return id, ok
}

// WithStage attaches the active stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFrom extracts the active stage name, if present.
func StageFrom(ctx context.Context) (string, bool) {
	stage, ok := ctx.Value(stageKey).(string)
	return stage, ok
}

// WithLane attaches the workflow lane name to the context.
func WithLane(ctx context.Context, lane string) context.Context {
	return context.WithValue(ctx, laneKey, lane)
}

// LaneFrom extracts the workflow lane name, if present.
func LaneFrom(ctx context.Context) (string, bool) {
	lane, ok := ctx.Value(laneKey).(string)
	return lane, ok
}

// WithCorrelationID attaches a request correlation identifier.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFrom extracts the correlation identifier, if present.
func CorrelationIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDKey).(string)
	return id, ok
}
