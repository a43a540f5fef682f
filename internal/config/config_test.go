package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"paperreel/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
[extraction]
token = "mineru-token"

[llm]
api_key = "llm-key"

[image]
api_key = "ark-key"

[video]
api_key = "ark-key"
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != path {
		t.Fatalf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Extraction.BaseURL != "https://mineru.net/api/v4" {
		t.Fatalf("extraction base url = %q", cfg.Extraction.BaseURL)
	}
	if cfg.Render.FrameFaultPolicy != "skip" {
		t.Fatalf("frame fault policy = %q", cfg.Render.FrameFaultPolicy)
	}
	if cfg.Workflow.HeartbeatTimeout <= cfg.Workflow.HeartbeatInterval {
		t.Fatal("heartbeat timeout must exceed interval")
	}
	if !filepath.IsAbs(cfg.Paths.StagingDir) {
		t.Fatalf("staging dir not expanded: %q", cfg.Paths.StagingDir)
	}
}

func TestLoadRequiresExtractionToken(t *testing.T) {
	t.Setenv("MINERU_TOKEN", "")
	path := writeConfig(t, `
[llm]
api_key = "llm-key"

[image]
api_key = "ark-key"

[video]
api_key = "ark-key"
`)
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "extraction.token") {
		t.Fatalf("expected extraction token error, got %v", err)
	}
}

func TestLoadEnvFallbacks(t *testing.T) {
	t.Setenv("MINERU_TOKEN", "env-mineru")
	t.Setenv("OPENROUTER_API_KEY", "env-llm")
	t.Setenv("ARK_API_KEY", "env-ark")

	path := writeConfig(t, "")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Extraction.Token != "env-mineru" {
		t.Fatalf("extraction token = %q", cfg.Extraction.Token)
	}
	if cfg.LLM.APIKey != "env-llm" {
		t.Fatalf("llm api key = %q", cfg.LLM.APIKey)
	}
	if cfg.Image.APIKey != "env-ark" || cfg.Video.APIKey != "env-ark" {
		t.Fatalf("ark keys = %q / %q", cfg.Image.APIKey, cfg.Video.APIKey)
	}
}

func TestLoadRejectsUnknownFaultPolicy(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[render]
frame_fault_policy = "retry"
`)
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "frame_fault_policy") {
		t.Fatalf("expected policy error, got %v", err)
	}
}

func TestLoadRejectsBaiduWithoutKeys(t *testing.T) {
	t.Setenv("BAIDU_TTS_API_KEY", "")
	t.Setenv("BAIDU_TTS_SECRET_KEY", "")
	path := writeConfig(t, minimalConfig+`
[tts]
provider = "baidu"
`)
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "baidu") {
		t.Fatalf("expected baidu credential error, got %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("MINERU_TOKEN", "env-mineru")
	t.Setenv("OPENROUTER_API_KEY", "env-llm")
	t.Setenv("ARK_API_KEY", "env-ark")

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("Load sample: %v", err)
	}
}
