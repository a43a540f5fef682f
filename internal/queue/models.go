package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending       Status = "pending"
	StatusExtracting    Status = "extracting"
	StatusExtracted     Status = "extracted"
	StatusStoryboarding Status = "storyboarding"
	StatusStoryboarded  Status = "storyboarded"
	StatusImaging       Status = "imaging"
	StatusImaged        Status = "imaged"
	StatusAnimating     Status = "animating"
	StatusAnimated      Status = "animated"
	StatusLocalizing    Status = "localizing"
	StatusLocalized     Status = "localized"
	StatusNarrating     Status = "narrating"
	StatusNarrated      Status = "narrated"
	StatusCaptioning    Status = "captioning"
	StatusCaptioned     Status = "captioned"
	StatusVoicing       Status = "voicing"
	StatusVoiced        Status = "voiced"
	StatusMerging       Status = "merging"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
	StatusReview        Status = "review"
)

// UserStopReason is the review reason set when a user explicitly stops an item.
const UserStopReason = "Stop requested by user"

// DaemonStopReason is the error message set when items are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusExtracted,
	StatusStoryboarding,
	StatusStoryboarded,
	StatusImaging,
	StatusImaged,
	StatusAnimating,
	StatusAnimated,
	StatusLocalizing,
	StatusLocalized,
	StatusNarrating,
	StatusNarrated,
	StatusCaptioning,
	StatusCaptioned,
	StatusVoicing,
	StatusVoiced,
	StatusMerging,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusExtracting:    {},
	StatusStoryboarding: {},
	StatusImaging:       {},
	StatusAnimating:     {},
	StatusLocalizing:    {},
	StatusNarrating:     {},
	StatusCaptioning:    {},
	StatusVoicing:       {},
	StatusMerging:       {},
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID              int64
	TaskID          string
	DocumentURL     string
	Title           string
	Status          Status
	DocumentPath    string
	StoryboardPath  string
	FramesJSON      string
	MergedFile      string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
	NeedsReview     bool
	ReviewReason    string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status ends the workflow.
func IsTerminal(status Status) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusReview:
		return true
	default:
		return false
	}
}

// IsUserStopReason reports whether a review reason represents a user-initiated stop.
func IsUserStopReason(reason string) bool {
	return strings.EqualFold(strings.TrimSpace(reason), UserStopReason)
}

// InitProgress resets progress fields for a new stage.
func (i *Item) InitProgress(stage, message string) {
	if i.ProgressStage == "" {
		i.ProgressStage = stage
	}
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// ProcessingLane partitions workflow into document preparation and
// per-frame rendering work.
type ProcessingLane string

const (
	LaneDocument ProcessingLane = "document"
	LaneRender   ProcessingLane = "render"
)

// LaneForItem maps a queue item to its processing lane.
func LaneForItem(item *Item) ProcessingLane {
	if item == nil {
		return LaneDocument
	}
	switch item.Status {
	case StatusPending, StatusExtracting, StatusExtracted, StatusStoryboarding:
		return LaneDocument
	default:
		return LaneRender
	}
}
