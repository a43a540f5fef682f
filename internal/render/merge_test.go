package render

import (
	"context"
	"errors"
	"testing"

	"paperreel/internal/logging"
	"paperreel/internal/notifications"
	"paperreel/internal/services"
	"paperreel/internal/testsupport"
)

type recordingNotifier struct {
	notifications.Service
	completed []string
}

func (r *recordingNotifier) NotifyTaskCompleted(ctx context.Context, title, mergedFile string) error {
	r.completed = append(r.completed, mergedFile)
	return nil
}

func TestMergerOrdersSegmentsByFrameID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, item := newRenderTask(t, cfg)

	assets := t.TempDir()
	third := frameFixture(3)
	third.VoicedFile = writeTempFile(t, assets, "frame_3.mp4", "mp4")
	first := frameFixture(1)
	first.VoicedFile = writeTempFile(t, assets, "frame_1.mp4", "mp4")
	second := frameFixture(2)
	second.VoicedFile = writeTempFile(t, assets, "frame_2.mp4", "mp4")
	seedFrames(t, cfg, item, third, first, second)

	compositor := &fakeCompositor{}
	notifier := &recordingNotifier{}
	merger := NewMergerWithDependencies(cfg, store, logging.NewNop(), compositor, notifier)
	if err := merger.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(compositor.concats) != 1 {
		t.Fatalf("expected one concat, got %d", len(compositor.concats))
	}
	want := []string{first.VoicedFile, second.VoicedFile, third.VoicedFile}
	got := compositor.concats[0]
	if len(got) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("segment %d is %q, want %q", i, got[i], want[i])
		}
	}

	layout := item.Layout(cfg.Paths.StagingDir)
	if item.MergedFile != layout.MergedPath() {
		t.Fatalf("merged file %q does not match layout", item.MergedFile)
	}
	if len(notifier.completed) != 1 || notifier.completed[0] != item.MergedFile {
		t.Fatalf("completion notification missing or wrong: %v", notifier.completed)
	}
}

func TestMergerSkipsUnvoicedFrames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, item := newRenderTask(t, cfg)

	voiced := frameFixture(2)
	voiced.VoicedFile = writeTempFile(t, t.TempDir(), "frame_2.mp4", "mp4")
	seedFrames(t, cfg, item, frameFixture(1), voiced)

	compositor := &fakeCompositor{}
	merger := NewMergerWithDependencies(cfg, store, logging.NewNop(), compositor, &recordingNotifier{})
	if err := merger.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(compositor.concats) != 1 || len(compositor.concats[0]) != 1 {
		t.Fatalf("only voiced frames should be merged: %v", compositor.concats)
	}
	if compositor.concats[0][0] != voiced.VoicedFile {
		t.Fatalf("merged wrong segment %q", compositor.concats[0][0])
	}
}

func TestMergerCompletesWithEmptyResult(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, item := newRenderTask(t, cfg)
	seedFrames(t, cfg, item, frameFixture(1), frameFixture(2))

	compositor := &fakeCompositor{}
	notifier := &recordingNotifier{}
	merger := NewMergerWithDependencies(cfg, store, logging.NewNop(), compositor, notifier)
	if err := merger.Execute(context.Background(), item); err != nil {
		t.Fatalf("zero qualifying frames must not be an error: %v", err)
	}
	if item.MergedFile != "" {
		t.Fatalf("expected empty merged file, got %q", item.MergedFile)
	}
	if len(compositor.concats) != 0 {
		t.Fatal("no concat should run without voiced frames")
	}
	if len(notifier.completed) != 0 {
		t.Fatal("no completion notification expected for empty result")
	}
}

func TestMergerConcatFailureFailsTask(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, item := newRenderTask(t, cfg)

	frame := frameFixture(1)
	frame.VoicedFile = writeTempFile(t, t.TempDir(), "frame_1.mp4", "mp4")
	seedFrames(t, cfg, item, frame)

	compositor := &fakeCompositor{err: errors.New("concat demuxer failed")}
	merger := NewMergerWithDependencies(cfg, store, logging.NewNop(), compositor, &recordingNotifier{})
	err := merger.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
