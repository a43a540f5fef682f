package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"paperreel/internal/config"
	"paperreel/internal/frames"
	"paperreel/internal/media/ffmpeg"
	"paperreel/internal/queue"
	"paperreel/internal/testsupport"
)

func seedFrames(t *testing.T, cfg *config.Config, item *queue.Item, artifacts ...frames.Artifact) {
	t.Helper()
	layout := item.Layout(cfg.Paths.StagingDir)
	if err := os.MkdirAll(layout.Root(), 0o755); err != nil {
		t.Fatalf("mkdir workspace: %v", err)
	}
	env := frames.Envelope{Frames: artifacts}
	encoded, err := env.Encode()
	if err != nil {
		t.Fatalf("encode envelope: %v", err)
	}
	item.FramesJSON = encoded
}

func frameFixture(id int) frames.Artifact {
	return frames.Artifact{Frame: frames.Frame{
		FrameID:           id,
		Title:             fmt.Sprintf("标题%d", id),
		Voiceover:         fmt.Sprintf("旁白%d", id),
		VisualDescription: fmt.Sprintf("画面%d", id),
		MotionPrompt:      fmt.Sprintf("motion %d", id),
	}}
}

func decodeFrames(t *testing.T, item *queue.Item) frames.Envelope {
	t.Helper()
	env, err := frames.Decode(item.FramesJSON)
	if err != nil {
		t.Fatalf("decode frames: %v", err)
	}
	return env
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// fakeCompositor records compositor calls and copies inputs to outputs.
type fakeCompositor struct {
	captions []string
	muxes    [][2]string
	concats  [][]string
	err      error
}

func (f *fakeCompositor) AddCaption(ctx context.Context, input, output, caption string, style ffmpeg.CaptionStyle) error {
	if f.err != nil {
		return f.err
	}
	f.captions = append(f.captions, caption)
	return os.WriteFile(output, []byte("captioned"), 0o644)
}

func (f *fakeCompositor) MuxAudio(ctx context.Context, video, audio, output string) error {
	if f.err != nil {
		return f.err
	}
	f.muxes = append(f.muxes, [2]string{video, audio})
	return os.WriteFile(output, []byte("voiced"), 0o644)
}

func (f *fakeCompositor) Concatenate(ctx context.Context, inputs []string, output string) error {
	if f.err != nil {
		return f.err
	}
	f.concats = append(f.concats, append([]string(nil), inputs...))
	return os.WriteFile(output, []byte("merged"), 0o644)
}

func (f *fakeCompositor) Binary() string { return "ffmpeg" }

func newRenderTask(t *testing.T, cfg *config.Config) (*queue.Store, *queue.Item) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://example.org/a.pdf", "Paper")
	return store, item
}
