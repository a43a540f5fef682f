package render

import (
	"context"
	"errors"
	"testing"

	"paperreel/internal/config"
	"paperreel/internal/logging"
	"paperreel/internal/services"
	"paperreel/internal/testsupport"
)

func TestCaptionerBurnsVoiceoverText(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, item := newRenderTask(t, cfg)

	clips := t.TempDir()
	first := frameFixture(1)
	first.VideoFile = writeTempFile(t, clips, "frame_1.mp4", "mp4")
	second := frameFixture(2)
	second.VideoFile = writeTempFile(t, clips, "frame_2.mp4", "mp4")
	seedFrames(t, cfg, item, first, second)

	compositor := &fakeCompositor{}
	captioner := NewCaptionerWithDependencies(cfg, store, logging.NewNop(), compositor)
	if err := captioner.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(compositor.captions) != 2 {
		t.Fatalf("expected 2 caption calls, got %d", len(compositor.captions))
	}
	if compositor.captions[0] != "旁白1" || compositor.captions[1] != "旁白2" {
		t.Fatalf("captions must carry the narration text, got %v", compositor.captions)
	}

	env := decodeFrames(t, item)
	layout := item.Layout(cfg.Paths.StagingDir)
	for _, frame := range env.Frames {
		if frame.CaptionedFile != layout.FrameCaptioned(frame.FrameID) {
			t.Fatalf("frame %d captioned file %q does not match layout", frame.FrameID, frame.CaptionedFile)
		}
	}
}

func TestCaptionerSkipsFramesWithoutVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, item := newRenderTask(t, cfg)
	seedFrames(t, cfg, item, frameFixture(1))

	compositor := &fakeCompositor{}
	captioner := NewCaptionerWithDependencies(cfg, store, logging.NewNop(), compositor)
	if err := captioner.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(compositor.captions) != 0 {
		t.Fatalf("frames without a local clip must not be captioned, got %d calls", len(compositor.captions))
	}
	env := decodeFrames(t, item)
	if env.Frames[0].CaptionedFile != "" {
		t.Fatalf("skipped frame should have no captioned file, got %q", env.Frames[0].CaptionedFile)
	}
}

func TestCaptionerAbortPolicyFailsTask(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFaultPolicy(config.FaultPolicyAbort))
	store, item := newRenderTask(t, cfg)

	frame := frameFixture(1)
	frame.VideoFile = writeTempFile(t, t.TempDir(), "frame_1.mp4", "mp4")
	seedFrames(t, cfg, item, frame)

	compositor := &fakeCompositor{err: errors.New("drawtext failed")}
	captioner := NewCaptionerWithDependencies(cfg, store, logging.NewNop(), compositor)
	err := captioner.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
