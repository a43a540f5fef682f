package storyboard

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"paperreel/internal/config"
	"paperreel/internal/frames"
	"paperreel/internal/logging"
	"paperreel/internal/queue"
	"paperreel/internal/services"
	"paperreel/internal/testsupport"
)

const validStoryboard = `[
  {"frame_id":2,"title_cn":"方法","voiceover_script_cn":"这是方法部分。","visual_description_cn":"流程图","img2vid_motion_prompt_en":"slow zoom"},
  {"frame_id":1,"title_cn":"开场","voiceover_script_cn":"大家好。","visual_description_cn":"实验室","img2vid_motion_prompt_en":"slow pan"}
]`

type fakeClient struct {
	responses []string
	errs      []error
	prompts   []string
	calls     int
}

func (f *fakeClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	index := f.calls
	f.calls++
	f.prompts = append(f.prompts, userPrompt)
	var err error
	if index < len(f.errs) {
		err = f.errs[index]
	}
	response := ""
	if index < len(f.responses) {
		response = f.responses[index]
	}
	return response, err
}

func writeDocument(t *testing.T, cfg *config.Config, item *queue.Item) {
	t.Helper()
	layout := item.Layout(cfg.Paths.StagingDir)
	if err := os.MkdirAll(layout.Root(), 0o755); err != nil {
		t.Fatalf("mkdir workspace: %v", err)
	}
	if err := os.WriteFile(layout.DocumentPath(), []byte("# Paper body"), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	item.DocumentPath = layout.DocumentPath()
}

func TestExecuteGeneratesStoryboard(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://example.org/a.pdf", "Paper")
	writeDocument(t, cfg, item)

	client := &fakeClient{responses: []string{validStoryboard}}
	generator := NewGeneratorWithDependencies(cfg, store, logging.NewNop(), client, nil)

	ctx := context.Background()
	if err := generator.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := generator.Execute(ctx, item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 generator call, got %d", client.calls)
	}
	if item.StoryboardPath == "" {
		t.Fatal("expected storyboard path")
	}
	if _, err := os.Stat(item.StoryboardPath); err != nil {
		t.Fatalf("storyboard file missing: %v", err)
	}
	layout := item.Layout(cfg.Paths.StagingDir)
	if _, err := os.Stat(layout.StoryboardRawPath()); err != nil {
		t.Fatalf("raw output missing: %v", err)
	}

	env, err := frames.Decode(item.FramesJSON)
	if err != nil {
		t.Fatalf("decode frames: %v", err)
	}
	if len(env.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(env.Frames))
	}
	sorted := env.Sorted()
	if sorted[0].FrameID != 1 || sorted[1].FrameID != 2 {
		t.Fatalf("frames not sortable by id: %+v", sorted)
	}
}

func TestExecuteRetriesOnceWithStrictInstruction(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://example.org/a.pdf", "Paper")
	writeDocument(t, cfg, item)

	client := &fakeClient{responses: []string{"I cannot produce JSON right now.", validStoryboard}}
	generator := NewGeneratorWithDependencies(cfg, store, logging.NewNop(), client, nil)
	if err := generator.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected exactly 2 generator calls, got %d", client.calls)
	}
	if !strings.Contains(client.prompts[1], "合法 JSON") {
		t.Fatalf("retry prompt missing strict instruction: %q", client.prompts[1])
	}
}

func TestExecuteFailsToReviewAfterSecondParseFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://example.org/a.pdf", "Paper")
	writeDocument(t, cfg, item)

	client := &fakeClient{responses: []string{"not json", "still not json"}}
	generator := NewGeneratorWithDependencies(cfg, store, logging.NewNop(), client, nil)
	err := generator.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected exactly 2 generator calls, got %d", client.calls)
	}
	if queue.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("unparseable storyboard should route to review, got %s", queue.FailureStatus(err))
	}
}

func TestExecuteRequiresDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://example.org/a.pdf", "Paper")

	generator := NewGeneratorWithDependencies(cfg, store, logging.NewNop(), &fakeClient{}, nil)
	err := generator.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	generator := NewGeneratorWithDependencies(cfg, nil, logging.NewNop(), &fakeClient{}, nil)
	if health := generator.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %+v", health)
	}
	cfg.LLM.APIKey = ""
	if health := generator.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy without api key")
	}
}
