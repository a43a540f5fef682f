package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"paperreel/internal/config"
)

const userAgent = "PaperReel-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyTaskSubmitted(ctx context.Context, title string) error
	NotifyExtractionCompleted(ctx context.Context, title string) error
	NotifyStoryboardCompleted(ctx context.Context, title string, frameCount int) error
	NotifyTaskCompleted(ctx context.Context, title, mergedFile string) error
	NotifyReviewRequired(ctx context.Context, title, reason string) error
	NotifyQueueStarted(ctx context.Context, count int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dedupWindow := time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		events:      cfg.Notifications,
		dedupWindow: dedupWindow,
		recent:      make(map[string]time.Time),
		now:         time.Now,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	events      config.Notifications
	dedupWindow time.Duration
	now         func() time.Time

	mu     sync.Mutex
	recent map[string]time.Time
}

func (n *ntfyService) NotifyTaskSubmitted(ctx context.Context, title string) error {
	if !n.events.Queue {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "PaperReel - Task Submitted",
		message: fmt.Sprintf("Queued for extraction: %s", title),
		tags:    []string{"paperreel", "queue", "submitted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExtractionCompleted(ctx context.Context, title string) error {
	if !n.events.Extraction {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "PaperReel - Extracted",
		message: fmt.Sprintf("Document extracted: %s", title),
		tags:    []string{"paperreel", "extraction", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStoryboardCompleted(ctx context.Context, title string, frameCount int) error {
	if !n.events.Storyboard {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "PaperReel - Storyboarded",
		message: fmt.Sprintf("Storyboard ready with %d frames: %s", frameCount, title),
		tags:    []string{"paperreel", "storyboard", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTaskCompleted(ctx context.Context, title, mergedFile string) error {
	if !n.events.Render {
		return nil
	}
	title = strings.TrimSpace(title)
	mergedFile = strings.TrimSpace(mergedFile)
	message := fmt.Sprintf("Video ready: %s", title)
	if mergedFile != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, mergedFile)
	}
	data := payload{
		title:    "PaperReel - Complete",
		message:  message,
		tags:     []string{"paperreel", "render", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReviewRequired(ctx context.Context, title, reason string) error {
	if !n.events.Errors {
		return nil
	}
	title = strings.TrimSpace(title)
	reason = strings.TrimSpace(reason)
	message := fmt.Sprintf("Manual review required: %s", title)
	if reason != "" {
		message = fmt.Sprintf("%s\nReason: %s", message, reason)
	}
	data := payload{
		title:   "PaperReel - Review",
		message: message,
		tags:    []string{"paperreel", "review"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueStarted(ctx context.Context, count int) error {
	if !n.events.Queue {
		return nil
	}
	data := payload{
		title:   "PaperReel - Queue Started",
		message: fmt.Sprintf("Started processing queue with %d tasks", count),
		tags:    []string{"paperreel", "queue", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.events.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "PaperReel - Error",
		message:  builder.String(),
		tags:     []string{"paperreel", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "PaperReel - Test",
		message:  "Notification system test",
		tags:     []string{"paperreel", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

// suppressed reports whether an identical message was sent within the
// dedup window. Repeated per-frame errors in a long render would
// otherwise flood the topic.
func (n *ntfyService) suppressed(message string) bool {
	if n.dedupWindow <= 0 {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	if sent, ok := n.recent[message]; ok && now.Sub(sent) < n.dedupWindow {
		return true
	}
	for key, sent := range n.recent {
		if now.Sub(sent) >= n.dedupWindow {
			delete(n.recent, key)
		}
	}
	n.recent[message] = now
	return false
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	if n.suppressed(data.message) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyTaskSubmitted(context.Context, string) error              { return nil }
func (noopService) NotifyExtractionCompleted(context.Context, string) error        { return nil }
func (noopService) NotifyStoryboardCompleted(context.Context, string, int) error   { return nil }
func (noopService) NotifyTaskCompleted(context.Context, string, string) error      { return nil }
func (noopService) NotifyReviewRequired(context.Context, string, string) error     { return nil }
func (noopService) NotifyQueueStarted(context.Context, int) error                  { return nil }
func (noopService) NotifyError(context.Context, error, string) error               { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
