package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Task describes a queue entry in a transport-friendly format.
type Task struct {
	ID             int64        `json:"id"`
	TaskID         string       `json:"taskId"`
	Title          string       `json:"title"`
	DocumentURL    string       `json:"documentUrl"`
	Status         string       `json:"status"`
	ProcessingLane string       `json:"processingLane"`
	Progress       TaskProgress `json:"progress"`
	ErrorMessage   string       `json:"errorMessage,omitempty"`
	CreatedAt      string       `json:"createdAt,omitempty"`
	UpdatedAt      string       `json:"updatedAt,omitempty"`
	DocumentPath   string       `json:"documentPath,omitempty"`
	StoryboardPath string       `json:"storyboardPath,omitempty"`
	MergedFile     string       `json:"mergedFile,omitempty"`
	NeedsReview    bool         `json:"needsReview"`
	ReviewReason   string       `json:"reviewReason,omitempty"`
}

// TaskProgress captures stage progress information for a queue entry.
type TaskProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// SubmitRequest enqueues a new document for processing. TaskID is
// optional; when empty the daemon generates one.
type SubmitRequest struct {
	DocumentURL string `json:"documentUrl"`
	Title       string `json:"title,omitempty"`
	TaskID      string `json:"taskId,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastItem    *Task          `json:"lastItem,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queueDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus reports whether an external binary is installed.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// TaskListResponse wraps a collection of tasks.
type TaskListResponse struct {
	Items []Task `json:"items"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Item Task `json:"item"`
}

// CountResponse reports how many rows an operation affected.
type CountResponse struct {
	Count int64 `json:"count"`
}

// RemoveResponse reports whether a task was removed.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// QueueHealthResponse reports aggregate queue counts.
type QueueHealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Review     int `json:"review"`
	Completed  int `json:"completed"`
}

// TestNotificationResponse reports the outcome of a test notification.
type TestNotificationResponse struct {
	Sent   bool   `json:"sent"`
	Detail string `json:"detail"`
}

// ErrorResponse carries a human-readable failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}
