package extraction

import (
	"context"
	"errors"
	"os"
	"testing"

	"paperreel/internal/logging"
	"paperreel/internal/queue"
	"paperreel/internal/services"
	"paperreel/internal/services/mineru"
	"paperreel/internal/testsupport"
)

type fakeClient struct {
	markdown []byte
	err      error
	calls    int
	lastURL  string
}

func (f *fakeClient) ExtractMarkdown(ctx context.Context, documentURL string) ([]byte, error) {
	f.calls++
	f.lastURL = documentURL
	return f.markdown, f.err
}

func TestExecuteWritesDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://arxiv.org/pdf/2408.03175", "Paper")

	client := &fakeClient{markdown: []byte("# Paper\n\nExtracted body.")}
	extractor := NewExtractorWithDependencies(cfg, store, logging.NewNop(), client, nil)

	ctx := context.Background()
	if err := extractor.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := extractor.Execute(ctx, item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if client.lastURL != "https://arxiv.org/pdf/2408.03175" {
		t.Fatalf("unexpected extraction url %q", client.lastURL)
	}
	if item.DocumentPath == "" {
		t.Fatal("expected document path to be set")
	}
	data, err := os.ReadFile(item.DocumentPath)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	if string(data) != "# Paper\n\nExtracted body." {
		t.Fatalf("unexpected document contents: %q", data)
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("expected progress complete, got %v", item.ProgressPercent)
	}
}

func TestExecuteDeterministicDocumentPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://example.org/a.pdf", "Paper")

	layout := item.Layout(cfg.Paths.StagingDir)
	extractor := NewExtractorWithDependencies(cfg, store, logging.NewNop(), &fakeClient{markdown: []byte("x")}, nil)
	if err := extractor.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if item.DocumentPath != layout.DocumentPath() {
		t.Fatalf("document path %q does not match layout %q", item.DocumentPath, layout.DocumentPath())
	}
}

func TestExecuteRejectsMissingURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://example.org/a.pdf", "Paper")
	item.DocumentURL = "   "

	extractor := NewExtractorWithDependencies(cfg, store, logging.NewNop(), &fakeClient{}, nil)
	err := extractor.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteClassifiesTimeout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://example.org/a.pdf", "Paper")

	client := &fakeClient{err: mineru.ErrTimeout}
	extractor := NewExtractorWithDependencies(cfg, store, logging.NewNop(), client, nil)
	err := extractor.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if queue.FailureStatus(err) != queue.StatusFailed {
		t.Fatalf("timeouts should fail the task, got %s", queue.FailureStatus(err))
	}
}

func TestExecuteRejectsEmptyExtraction(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://example.org/a.pdf", "Paper")

	extractor := NewExtractorWithDependencies(cfg, store, logging.NewNop(), &fakeClient{markdown: []byte("   ")}, nil)
	err := extractor.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	extractor := NewExtractorWithDependencies(cfg, nil, logging.NewNop(), &fakeClient{}, nil)
	if health := extractor.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %+v", health)
	}

	cfg.Extraction.Token = ""
	if health := extractor.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy without token")
	}
}
