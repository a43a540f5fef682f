package speech

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestEdgeSynthesizeArgs(t *testing.T) {
	var gotName string
	var gotArgs []string
	synth := NewEdgeSynthesizer("edge-tts", "zh-CN-XiaoxiaoNeural", WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}))

	out := filepath.Join(t.TempDir(), "frame_1.mp3")
	if err := synth.Synthesize(context.Background(), "大家好", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if gotName != "edge-tts" {
		t.Fatalf("unexpected binary %q", gotName)
	}
	want := []string{"--voice", "zh-CN-XiaoxiaoNeural", "--text", "大家好", "--write-media", out}
	if len(gotArgs) != len(want) {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Fatalf("arg %d: got %q want %q", i, gotArgs[i], want[i])
		}
	}
}

func TestEdgeSynthesizeEmptyText(t *testing.T) {
	synth := NewEdgeSynthesizer("", "voice", WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		t.Fatal("runner should not be invoked for empty text")
		return nil
	}))
	if err := synth.Synthesize(context.Background(), "   ", "out.mp3"); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestEdgeSynthesizeCommandFailure(t *testing.T) {
	wantErr := errors.New("boom")
	synth := NewEdgeSynthesizer("edge-tts", "voice", WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return wantErr
	}))
	err := synth.Synthesize(context.Background(), "text", "out.mp3")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
}
