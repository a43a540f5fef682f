package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"paperreel/internal/media/ffprobe"
)

type capturedCommand struct {
	name string
	args []string
}

func newCaptureService(commands *[]capturedCommand) *Service {
	return NewService("ffmpeg", "ffprobe", WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		*commands = append(*commands, capturedCommand{name: name, args: args})
		return nil
	}))
}

func argsContain(args []string, want ...string) bool {
	joined := " " + strings.Join(args, " ") + " "
	return strings.Contains(joined, " "+strings.Join(want, " ")+" ")
}

func TestAddCaptionBuildsDrawtext(t *testing.T) {
	var commands []capturedCommand
	svc := newCaptureService(&commands)

	dir := t.TempDir()
	output := filepath.Join(dir, "captioned.mp4")
	err := svc.AddCaption(context.Background(), filepath.Join(dir, "in.mp4"), output, "量子计算的未来属于所有人", CaptionStyle{
		FontFile:  "/usr/share/fonts/noto.ttf",
		FontSize:  40,
		LineWidth: 10,
	})
	if err != nil {
		t.Fatalf("AddCaption: %v", err)
	}
	if len(commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(commands))
	}
	args := commands[0].args
	var filter string
	for i, arg := range args {
		if arg == "-vf" && i+1 < len(args) {
			filter = args[i+1]
		}
	}
	if !strings.HasPrefix(filter, "drawtext=") {
		t.Fatalf("expected drawtext filter, got %q", filter)
	}
	if !strings.Contains(filter, "fontsize=40") || !strings.Contains(filter, "fontfile=") {
		t.Fatalf("filter missing font options: %q", filter)
	}
	if !strings.Contains(filter, "textfile=") {
		t.Fatalf("filter should reference a text file: %q", filter)
	}
	if !argsContain(args, "-c:v", "libx264") || args[len(args)-1] != output {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestAddCaptionWrapsFullwidthText(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "captioned.mp4")

	// The runner reads the caption file before AddCaption removes it.
	var wrote string
	svc := NewService("ffmpeg", "ffprobe", WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		data, err := os.ReadFile(output + ".caption.txt")
		if err != nil {
			t.Fatalf("read caption file: %v", err)
		}
		wrote = string(data)
		return nil
	}))
	err := svc.AddCaption(context.Background(), filepath.Join(dir, "in.mp4"), output, "量子计算的未来属于所有人", CaptionStyle{LineWidth: 10})
	if err != nil {
		t.Fatalf("AddCaption: %v", err)
	}
	lines := strings.Split(wrote, "\n")
	if len(lines) < 2 {
		t.Fatalf("expected wrapped caption, got %q", wrote)
	}
}

func TestAddCaptionRejectsEmptyText(t *testing.T) {
	var commands []capturedCommand
	svc := newCaptureService(&commands)
	err := svc.AddCaption(context.Background(), "in.mp4", filepath.Join(t.TempDir(), "out.mp4"), "  ", CaptionStyle{})
	if err == nil {
		t.Fatal("expected error for empty caption")
	}
	if len(commands) != 0 {
		t.Fatalf("expected no commands, got %v", commands)
	}
}

func TestMuxAudioPadsToClipDuration(t *testing.T) {
	restore := probeMedia
	probeMedia = func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return ffprobe.Result{Format: ffprobe.Format{Duration: "5.25"}}, nil
	}
	defer func() { probeMedia = restore }()

	var commands []capturedCommand
	svc := newCaptureService(&commands)
	if err := svc.MuxAudio(context.Background(), "clip.mp4", "voice.mp3", "voiced.mp4"); err != nil {
		t.Fatalf("MuxAudio: %v", err)
	}
	args := commands[0].args
	if !argsContain(args, "-af", "apad") {
		t.Fatalf("expected apad filter, got %v", args)
	}
	if !argsContain(args, "-t", "5.250000") {
		t.Fatalf("expected clip duration cap, got %v", args)
	}
	if !argsContain(args, "-c:v", "copy") || !argsContain(args, "-c:a", "aac") {
		t.Fatalf("unexpected codec args: %v", args)
	}
}

func TestMuxAudioFallsBackToShortest(t *testing.T) {
	restore := probeMedia
	probeMedia = func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return ffprobe.Result{}, nil
	}
	defer func() { probeMedia = restore }()

	var commands []capturedCommand
	svc := newCaptureService(&commands)
	if err := svc.MuxAudio(context.Background(), "clip.mp4", "voice.mp3", "voiced.mp4"); err != nil {
		t.Fatalf("MuxAudio: %v", err)
	}
	args := commands[0].args
	if !argsContain(args, "-shortest") {
		t.Fatalf("expected -shortest fallback, got %v", args)
	}
	if argsContain(args, "-af", "apad") {
		t.Fatalf("unexpected apad without known duration: %v", args)
	}
}

func TestConcatenateWritesOrderedList(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "merged.mp4")

	var listContent string
	svc := NewService("ffmpeg", "ffprobe", WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		data, err := os.ReadFile(output + ".list.txt")
		if err != nil {
			t.Fatalf("read concat list: %v", err)
		}
		listContent = string(data)
		if !argsContain(args, "-f", "concat") || !argsContain(args, "-c", "copy") {
			t.Fatalf("unexpected args: %v", args)
		}
		return nil
	}))

	inputs := []string{
		filepath.Join(dir, "frame_1.mp4"),
		filepath.Join(dir, "frame_2.mp4"),
		filepath.Join(dir, "frame_10.mp4"),
	}
	if err := svc.Concatenate(context.Background(), inputs, output); err != nil {
		t.Fatalf("Concatenate: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(listContent), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 list entries, got %q", listContent)
	}
	for i, input := range inputs {
		if !strings.Contains(lines[i], input) {
			t.Fatalf("line %d should reference %s, got %q", i, input, lines[i])
		}
	}
	if _, err := os.Stat(output + ".list.txt"); !os.IsNotExist(err) {
		t.Fatalf("expected concat list cleanup, stat err=%v", err)
	}
}

func TestConcatenateRejectsEmptyInput(t *testing.T) {
	var commands []capturedCommand
	svc := newCaptureService(&commands)
	if err := svc.Concatenate(context.Background(), nil, "merged.mp4"); err == nil {
		t.Fatal("expected error for empty input list")
	}
}
