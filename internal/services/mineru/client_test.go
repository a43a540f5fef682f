package mineru

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, content := range files {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractMarkdown(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"output/full.md":    "# Extracted Paper\n\nBody text.",
		"output/layout.json": "{}",
	})

	var polls atomic.Int64
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/extract/task", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var body struct {
			URL   string `json:"url"`
			IsOCR bool   `json:"is_ocr"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.URL != "https://example.org/paper.pdf" || !body.IsOCR {
			t.Errorf("unexpected request body: %+v", body)
		}
		fmt.Fprint(w, `{"code":0,"msg":"ok","data":{"task_id":"task-1"}}`)
	})
	mux.HandleFunc("/extract/task/task-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		if polls.Add(1) < 3 {
			fmt.Fprint(w, `{"code":0,"data":{"task_id":"task-1","state":"running"}}`)
			return
		}
		fmt.Fprintf(w, `{"code":0,"data":{"task_id":"task-1","state":"done","full_zip_url":"%s/result.zip"}}`, server.URL)
	})
	mux.HandleFunc("/result.zip", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Write(archive)
	})

	client := NewClient(Config{
		BaseURL:   server.URL,
		Token:     "test-token",
		EnableOCR: true,
	}, WithSleeper(func(time.Duration) {}))

	markdown, err := client.ExtractMarkdown(context.Background(), "https://example.org/paper.pdf")
	if err != nil {
		t.Fatalf("ExtractMarkdown: %v", err)
	}
	if !strings.HasPrefix(string(markdown), "# Extracted Paper") {
		t.Fatalf("unexpected markdown: %q", markdown)
	}
	if polls.Load() != 3 {
		t.Fatalf("expected 3 polls, got %d", polls.Load())
	}
}

func TestExtractMarkdownTaskFailed(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/extract/task", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		fmt.Fprint(w, `{"code":0,"data":{"task_id":"task-2"}}`)
	})
	mux.HandleFunc("/extract/task/task-2", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		fmt.Fprint(w, `{"code":0,"data":{"task_id":"task-2","state":"failed","err_msg":"unreadable document"}}`)
	})

	client := NewClient(Config{BaseURL: server.URL, Token: "test-token"}, WithSleeper(func(time.Duration) {}))
	_, err := client.ExtractMarkdown(context.Background(), "https://example.org/paper.pdf")
	if err == nil || !strings.Contains(err.Error(), "unreadable document") {
		t.Fatalf("expected task failure error, got %v", err)
	}
}

func TestExtractMarkdownTimeout(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/extract/task", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		fmt.Fprint(w, `{"code":0,"data":{"task_id":"task-3"}}`)
	})
	mux.HandleFunc("/extract/task/task-3", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		fmt.Fprint(w, `{"code":0,"data":{"task_id":"task-3","state":"running"}}`)
	})

	client := NewClient(Config{
		BaseURL: server.URL,
		Token:   "test-token",
		MaxWait: time.Millisecond,
	}, WithSleeper(func(time.Duration) { time.Sleep(2 * time.Millisecond) }))
	_, err := client.ExtractMarkdown(context.Background(), "https://example.org/paper.pdf")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExtractMarkdownAPIError(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/extract/task", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		fmt.Fprint(w, `{"code":-60012,"msg":"invalid token"}`)
	})

	client := NewClient(Config{BaseURL: server.URL, Token: "bad-token"})
	_, err := client.ExtractMarkdown(context.Background(), "https://example.org/paper.pdf")
	if err == nil || !strings.Contains(err.Error(), "invalid token") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestMarkdownFromZipNoMarkdown(t *testing.T) {
	archive := buildZip(t, map[string]string{"layout.json": "{}"})
	if _, err := markdownFromZip(archive); err == nil {
		t.Fatal("expected error for archive without markdown")
	}
}

func TestMarkdownFromZipDeterministic(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"b.md": "second",
		"a.md": "first",
	})
	markdown, err := markdownFromZip(archive)
	if err != nil {
		t.Fatalf("markdownFromZip: %v", err)
	}
	if string(markdown) != "first" {
		t.Fatalf("expected lexically first markdown, got %q", markdown)
	}
}
