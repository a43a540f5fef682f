package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"paperreel/internal/config"
)

type recordedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newRecordingServer(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
	}))
	t.Cleanup(server.Close)
	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func newTestConfig(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.Extraction = true
	cfg.Notifications.Storyboard = true
	cfg.Notifications.Render = true
	cfg.Notifications.Queue = true
	cfg.Notifications.Errors = true
	cfg.Notifications.DedupWindowSeconds = 0
	return &cfg
}

func TestNotifyTaskCompleted(t *testing.T) {
	server, recorded := newRecordingServer(t)
	svc := NewService(newTestConfig(server.URL))

	if err := svc.NotifyTaskCompleted(context.Background(), "Attention Is All You Need", "/tmp/merged.mp4"); err != nil {
		t.Fatalf("NotifyTaskCompleted: %v", err)
	}
	requests := recorded()
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	got := requests[0]
	if got.title != "PaperReel - Complete" {
		t.Fatalf("unexpected title %q", got.title)
	}
	if got.priority != "high" {
		t.Fatalf("unexpected priority %q", got.priority)
	}
	if !strings.Contains(got.body, "Attention Is All You Need") || !strings.Contains(got.body, "/tmp/merged.mp4") {
		t.Fatalf("unexpected body %q", got.body)
	}
	if !strings.Contains(got.tags, "render") {
		t.Fatalf("unexpected tags %q", got.tags)
	}
}

func TestEventTogglesSuppressSend(t *testing.T) {
	server, recorded := newRecordingServer(t)
	cfg := newTestConfig(server.URL)
	cfg.Notifications.Extraction = false
	svc := NewService(cfg)

	if err := svc.NotifyExtractionCompleted(context.Background(), "paper"); err != nil {
		t.Fatalf("NotifyExtractionCompleted: %v", err)
	}
	if got := recorded(); len(got) != 0 {
		t.Fatalf("expected no requests, got %d", len(got))
	}
}

func TestDedupWindowSuppressesRepeats(t *testing.T) {
	server, recorded := newRecordingServer(t)
	cfg := newTestConfig(server.URL)
	cfg.Notifications.DedupWindowSeconds = 300
	svc := NewService(cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := svc.NotifyError(ctx, io.ErrUnexpectedEOF, "animation"); err != nil {
			t.Fatalf("NotifyError: %v", err)
		}
	}
	if err := svc.NotifyError(ctx, io.ErrUnexpectedEOF, "narration"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	requests := recorded()
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests after dedup, got %d", len(requests))
	}
}

func TestNoopServiceWithoutTopic(t *testing.T) {
	svc := NewService(newTestConfig(""))
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
}

func TestNtfyErrorStatusReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewService(newTestConfig(server.URL))
	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}
