package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"paperreel/internal/api"
	"paperreel/internal/config"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Extraction.Token = "test-token"
	cfg.LLM.APIKey = "test-key"
	cfg.Image.APIKey = "test-key"
	cfg.Video.APIKey = "test-key"

	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, server *httptest.Server, configPath string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--daemon", server.URL, "--config", configPath))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("command %v failed: %v\noutput: %s", args, err, out.String())
	}
	return out.String()
}

func TestSubmitCommandPrintsQueuedTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tasks" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req api.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode submit request: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(api.TaskResponse{Item: api.Task{
			ID: 7, TaskID: "b2f1", DocumentURL: req.DocumentURL, Status: "pending",
		}})
	}))
	defer server.Close()

	output := runCLI(t, server, writeTestConfig(t), "submit", "https://example.org/paper.pdf")
	if !strings.Contains(output, "Task 7 queued") {
		t.Fatalf("unexpected submit output: %s", output)
	}
}

func TestQueueListRendersTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.TaskListResponse{Items: []api.Task{
			{ID: 1, Title: "Attention Is All You Need", Status: "merging",
				Progress: api.TaskProgress{Percent: 50}},
		}})
	}))
	defer server.Close()

	output := runCLI(t, server, writeTestConfig(t), "queue", "list")
	if !strings.Contains(output, "Attention Is All You Need") {
		t.Fatalf("listing should include the task title, got: %s", output)
	}
	if !strings.Contains(output, "merging") {
		t.Fatalf("listing should include the status, got: %s", output)
	}
}

func TestShowCommandRendersReviewState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tasks/3" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(api.TaskResponse{Item: api.Task{
			ID: 3, Title: "Paper", Status: "review", NeedsReview: true,
			ReviewReason: "storyboard output is not valid JSON",
		}})
	}))
	defer server.Close()

	output := runCLI(t, server, writeTestConfig(t), "show", "3")
	if !strings.Contains(output, "storyboard output is not valid JSON") {
		t.Fatalf("show should surface the review reason, got: %s", output)
	}
}

func TestQueueListReportsEmptyQueue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.TaskListResponse{})
	}))
	defer server.Close()

	output := runCLI(t, server, writeTestConfig(t), "queue", "list")
	if !strings.Contains(output, "Queue is empty") {
		t.Fatalf("empty queue message missing, got: %s", output)
	}
}
