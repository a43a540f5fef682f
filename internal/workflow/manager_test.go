package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"paperreel/internal/config"
	"paperreel/internal/logging"
	"paperreel/internal/notifications"
	"paperreel/internal/queue"
	"paperreel/internal/services"
	"paperreel/internal/stage"
	"paperreel/internal/testsupport"
)

type stubHandler struct {
	name    string
	prepare func(ctx context.Context, item *queue.Item) error
	execute func(ctx context.Context, item *queue.Item) error

	mu    sync.Mutex
	calls int
}

func (s *stubHandler) Prepare(ctx context.Context, item *queue.Item) error {
	if s.prepare != nil {
		return s.prepare(ctx, item)
	}
	return nil
}

func (s *stubHandler) Execute(ctx context.Context, item *queue.Item) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.execute != nil {
		return s.execute(ctx, item)
	}
	return nil
}

func (s *stubHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(s.name)
}

func (s *stubHandler) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type failureNotifier struct {
	notifications.Service

	mu      sync.Mutex
	reviews []string
	errors  []string
}

func (f *failureNotifier) NotifyReviewRequired(ctx context.Context, title, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, reason)
	return nil
}

func (f *failureNotifier) NotifyError(ctx context.Context, err error, contextLabel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, contextLabel)
	return nil
}

func (f *failureNotifier) NotifyQueueStarted(ctx context.Context, count int) error { return nil }

func fullStageSet() (StageSet, map[string]*stubHandler) {
	names := []string{
		"extraction", "storyboard", "imaging", "animation", "localization",
		"narration", "captioning", "voicing", "merge",
	}
	handlers := make(map[string]*stubHandler, len(names))
	for _, name := range names {
		handlers[name] = &stubHandler{name: name}
	}
	return StageSet{
		Extractor:    handlers["extraction"],
		Storyboarder: handlers["storyboard"],
		Imager:       handlers["imaging"],
		Animator:     handlers["animation"],
		Localizer:    handlers["localization"],
		Narrator:     handlers["narration"],
		Captioner:    handlers["captioning"],
		Voicer:       handlers["voicing"],
		Merger:       handlers["merge"],
	}, handlers
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want ...queue.Status) *queue.Item {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		for _, status := range want {
			if item.Status == status {
				return item
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	item, _ := store.GetByID(context.Background(), id)
	t.Fatalf("item never reached %v, last status %q", want, item.Status)
	return nil
}

func newManagerFixture(t *testing.T, notifier notifications.Service) (*config.Config, *queue.Store, *Manager) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	manager := NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	return cfg, store, manager
}

func TestManagerRunsTaskToCompletion(t *testing.T) {
	_, store, manager := newManagerFixture(t, nil)
	set, handlers := fullStageSet()
	manager.ConfigureStages(set)

	item := testsupport.NewTask(t, store, "https://example.org/paper.pdf", "Paper")
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	done := waitForStatus(t, store, item.ID, queue.StatusCompleted)
	if done.ErrorMessage != "" {
		t.Fatalf("completed item carries error %q", done.ErrorMessage)
	}
	if done.ProgressPercent != 100 {
		t.Fatalf("completed item progress %v, want 100", done.ProgressPercent)
	}
	for name, handler := range handlers {
		if handler.callCount() != 1 {
			t.Fatalf("stage %s executed %d times, want 1", name, handler.callCount())
		}
	}
}

func TestManagerRoutesValidationFailureToReview(t *testing.T) {
	notifier := &failureNotifier{}
	_, store, manager := newManagerFixture(t, notifier)
	set, handlers := fullStageSet()
	set.Storyboarder = &stubHandler{
		name: "storyboard",
		execute: func(ctx context.Context, item *queue.Item) error {
			return services.Wrap(services.ErrValidation, "storyboarding", "parse storyboard",
				"Storyboard output is not valid JSON", nil)
		},
	}
	manager.ConfigureStages(set)

	item := testsupport.NewTask(t, store, "https://example.org/paper.pdf", "Paper")
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	failed := waitForStatus(t, store, item.ID, queue.StatusReview)
	if !failed.NeedsReview {
		t.Fatal("review item should carry the needs_review flag")
	}
	if failed.ReviewReason == "" {
		t.Fatal("review item should carry a review reason")
	}
	if handlers["imaging"].callCount() != 0 {
		t.Fatal("render lane must not run after a review stop")
	}

	notifier.mu.Lock()
	reviews := len(notifier.reviews)
	notifier.mu.Unlock()
	if reviews != 1 {
		t.Fatalf("expected one review notification, got %d", reviews)
	}
}

func TestManagerMarksExternalFailureFailed(t *testing.T) {
	notifier := &failureNotifier{}
	_, store, manager := newManagerFixture(t, notifier)
	set, _ := fullStageSet()
	set.Extractor = &stubHandler{
		name: "extraction",
		execute: func(ctx context.Context, item *queue.Item) error {
			return services.Wrap(services.ErrTimeout, "extracting", "wait for extraction",
				"Document extraction timed out", nil)
		},
	}
	manager.ConfigureStages(set)

	item := testsupport.NewTask(t, store, "https://example.org/paper.pdf", "Paper")
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	failed := waitForStatus(t, store, item.ID, queue.StatusFailed)
	if failed.ErrorMessage == "" {
		t.Fatal("failed item should carry an error message")
	}
	if failed.NeedsReview {
		t.Fatal("timeout failures are retryable, not review stops")
	}

	notifier.mu.Lock()
	errs := len(notifier.errors)
	notifier.mu.Unlock()
	if errs != 1 {
		t.Fatalf("expected one error notification, got %d", errs)
	}
}

func TestManagerStartRequiresStages(t *testing.T) {
	_, _, manager := newManagerFixture(t, nil)
	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("Start without configured stages should fail")
	}
}

func TestManagerStatusReportsStageHealth(t *testing.T) {
	_, _, manager := newManagerFixture(t, nil)
	set, _ := fullStageSet()
	manager.ConfigureStages(set)

	summary := manager.Status(context.Background())
	if summary.Running {
		t.Fatal("manager should not report running before Start")
	}
	if len(summary.StageHealth) != 9 {
		t.Fatalf("expected health for 9 stages, got %d", len(summary.StageHealth))
	}
	for name, health := range summary.StageHealth {
		if !health.Ready {
			t.Fatalf("stage %s unexpectedly unhealthy: %s", name, health.Detail)
		}
	}
}
