package daemon

import (
	"context"
	"strings"
	"testing"
	"time"

	"paperreel/internal/api"
	"paperreel/internal/config"
	"paperreel/internal/logging"
	"paperreel/internal/queue"
	"paperreel/internal/stage"
	"paperreel/internal/testsupport"
	"paperreel/internal/workflow"
)

type passHandler struct{ name string }

func (p passHandler) Prepare(ctx context.Context, item *queue.Item) error { return nil }

func (p passHandler) Execute(ctx context.Context, item *queue.Item) error { return nil }

func (p passHandler) HealthCheck(ctx context.Context) stage.Health { return stage.Healthy(p.name) }

func newTestDaemon(t *testing.T, cfg *config.Config) *Daemon {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	manager := workflow.NewManager(cfg, store, logging.NewNop())
	manager.ConfigureStages(workflow.StageSet{
		Extractor:    passHandler{"extraction"},
		Storyboarder: passHandler{"storyboard"},
		Imager:       passHandler{"imaging"},
		Animator:     passHandler{"animation"},
		Localizer:    passHandler{"localization"},
		Narrator:     passHandler{"narration"},
		Captioner:    passHandler{"captioning"},
		Voicer:       passHandler{"voicing"},
		Merger:       passHandler{"merge"},
	})
	d, err := New(cfg, store, logging.NewNop(), manager)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func startDaemon(t *testing.T, d *Daemon) {
	t.Helper()
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)
}

func TestDaemonProcessesSubmittedTask(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	d := newTestDaemon(t, cfg)
	startDaemon(t, d)

	client := api.NewClient("http://"+d.APIAddr(), "")
	task, err := client.Submit(context.Background(), api.SubmitRequest{
		DocumentURL: "https://example.org/paper.pdf",
		Title:       "Paper",
		TaskID:      "paper-2026",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if task.Status != string(queue.StatusPending) {
		t.Fatalf("submitted task status %q, want pending", task.Status)
	}
	if task.TaskID != "paper-2026" {
		t.Fatalf("caller-supplied task id not honored, got %q", task.TaskID)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		got, err := client.Get(context.Background(), task.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Status == string(queue.StatusCompleted) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("task never completed, status %q", got.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Fatal("daemon should report running")
	}
	if len(status.Workflow.StageHealth) != 9 {
		t.Fatalf("expected 9 stage health entries, got %d", len(status.Workflow.StageHealth))
	}

	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Completed != 1 {
		t.Fatalf("expected 1 completed task, got %d", health.Completed)
	}
}

func TestDaemonRejectsInvalidSubmission(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg)
	startDaemon(t, d)

	client := api.NewClient("http://"+d.APIAddr(), "")
	if _, err := client.Submit(context.Background(), api.SubmitRequest{DocumentURL: "/local/path.pdf"}); err == nil {
		t.Fatal("non-http submissions must be rejected")
	}
}

func TestDaemonRequiresBearerToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = "secret"
	d := newTestDaemon(t, cfg)
	startDaemon(t, d)

	unauthenticated := api.NewClient("http://"+d.APIAddr(), "")
	if _, err := unauthenticated.List(context.Background()); err == nil {
		t.Fatal("requests without a token must be rejected")
	} else if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 failure, got %v", err)
	}

	authenticated := api.NewClient("http://"+d.APIAddr(), "secret")
	if _, err := authenticated.List(context.Background()); err != nil {
		t.Fatalf("authenticated request failed: %v", err)
	}
}

func TestDaemonEnforcesSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newTestDaemon(t, cfg)
	startDaemon(t, first)

	secondCfg := *cfg
	secondCfg.Paths.APIBind = "127.0.0.1:0"
	second := newTestDaemon(t, &secondCfg)
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second daemon sharing the lock file must not start")
	}
}

func TestDaemonClearScopes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg)

	if _, err := d.ClearQueue(context.Background(), "bogus"); err == nil {
		t.Fatal("unknown clear scope must be rejected")
	}
	count, err := d.ClearQueue(context.Background(), "completed")
	if err != nil {
		t.Fatalf("ClearQueue: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 cleared from empty queue, got %d", count)
	}
}
