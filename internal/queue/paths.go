package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"paperreel/internal/textutil"
)

// Layout maps a task to its on-disk artifact locations. All paths are
// pure functions of the staging base directory and the task identifier,
// so re-running a stage always lands on the same files.
type Layout struct {
	root string
}

// NewLayout returns the artifact layout for a task rooted at base.
func NewLayout(base, taskID string) Layout {
	base = strings.TrimSpace(base)
	segment := textutil.SanitizeFileName(strings.TrimSpace(taskID))
	if segment == "" || segment == "untitled" {
		segment = "task"
	}
	return Layout{root: filepath.Join(base, segment)}
}

// Layout returns the artifact layout for this item rooted at base.
func (i Item) Layout(base string) Layout {
	return NewLayout(base, i.TaskID)
}

// Root returns the per-task working directory.
func (l Layout) Root() string { return l.root }

// DocumentPath is the extracted markdown document.
func (l Layout) DocumentPath() string { return filepath.Join(l.root, "paper.md") }

// StoryboardPath is the validated storyboard JSON.
func (l Layout) StoryboardPath() string { return filepath.Join(l.root, "storyboard.json") }

// StoryboardRawPath holds the raw model output before validation.
func (l Layout) StoryboardRawPath() string { return filepath.Join(l.root, "storyboard_raw.txt") }

// MergedPath is the final stitched video.
func (l Layout) MergedPath() string { return filepath.Join(l.root, "merged.mp4") }

func (l Layout) ImagesDir() string    { return filepath.Join(l.root, "images") }
func (l Layout) VideosDir() string    { return filepath.Join(l.root, "videos") }
func (l Layout) CaptionedDir() string { return filepath.Join(l.root, "captioned") }
func (l Layout) AudioDir() string     { return filepath.Join(l.root, "audio") }
func (l Layout) VoicedDir() string    { return filepath.Join(l.root, "voiced") }

// FrameImage is the rendered still for a storyboard frame.
func (l Layout) FrameImage(frameID int) string {
	return filepath.Join(l.ImagesDir(), frameFile(frameID, ".png"))
}

// FrameVideo is the animated clip downloaded from the video provider.
func (l Layout) FrameVideo(frameID int) string {
	return filepath.Join(l.VideosDir(), frameFile(frameID, ".mp4"))
}

// FrameCaptioned is the clip with the narration caption burned in.
func (l Layout) FrameCaptioned(frameID int) string {
	return filepath.Join(l.CaptionedDir(), frameFile(frameID, ".mp4"))
}

// FrameAudio is the synthesized narration track.
func (l Layout) FrameAudio(frameID int) string {
	return filepath.Join(l.AudioDir(), frameFile(frameID, ".mp3"))
}

// FrameVoiced is the captioned clip muxed with its narration.
func (l Layout) FrameVoiced(frameID int) string {
	return filepath.Join(l.VoicedDir(), frameFile(frameID, ".mp4"))
}

func frameFile(frameID int, ext string) string {
	return fmt.Sprintf("frame_%d%s", frameID, ext)
}
