// Package frames defines the storyboard frame model shared by the
// rendering stages and the JSON envelope persisted on queue items.
package frames

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Frame is one storyboard entry produced by the language model.
type Frame struct {
	FrameID           int    `json:"frame_id"`
	Title             string `json:"title_cn"`
	Voiceover         string `json:"voiceover_script_cn"`
	VisualDescription string `json:"visual_description_cn"`
	MotionPrompt      string `json:"img2vid_motion_prompt_en"`
}

// Artifact tracks the files produced for a frame as it moves through
// the render stages. Empty fields mean the stage has not produced the
// artifact, either because it has not run yet or because the frame was
// skipped after a soft failure.
type Artifact struct {
	Frame
	ImageFile     string `json:"image_file,omitempty"`
	VideoURL      string `json:"video_url,omitempty"`
	VideoFile     string `json:"video_file,omitempty"`
	AudioFile     string `json:"audio_file,omitempty"`
	CaptionedFile string `json:"captioned_file,omitempty"`
	VoicedFile    string `json:"voiced_file,omitempty"`
}

// Envelope is the frame collection stored on a queue item.
type Envelope struct {
	Frames []Artifact `json:"frames"`
}

// NewEnvelope wraps validated storyboard frames in a fresh envelope.
func NewEnvelope(frames []Frame) Envelope {
	artifacts := make([]Artifact, 0, len(frames))
	for _, frame := range frames {
		artifacts = append(artifacts, Artifact{Frame: frame})
	}
	return Envelope{Frames: artifacts}
}

// Decode parses an envelope from its queue item representation.
func Decode(raw string) (Envelope, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Envelope{}, nil
	}
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Envelope{}, fmt.Errorf("decode frame envelope: %w", err)
	}
	return env, nil
}

// Encode serializes the envelope for storage on a queue item.
func (e Envelope) Encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode frame envelope: %w", err)
	}
	return string(data), nil
}

// Sorted returns the frames ordered by ascending frame identifier.
func (e Envelope) Sorted() []Artifact {
	out := make([]Artifact, len(e.Frames))
	copy(out, e.Frames)
	sort.Slice(out, func(i, j int) bool { return out[i].FrameID < out[j].FrameID })
	return out
}

// Voiced returns the frames that completed the full render path,
// ordered by ascending frame identifier.
func (e Envelope) Voiced() []Artifact {
	var out []Artifact
	for _, frame := range e.Sorted() {
		if strings.TrimSpace(frame.VoicedFile) != "" {
			out = append(out, frame)
		}
	}
	return out
}

// Get returns a pointer to the artifact with the given frame id, or nil.
func (e *Envelope) Get(frameID int) *Artifact {
	for i := range e.Frames {
		if e.Frames[i].FrameID == frameID {
			return &e.Frames[i]
		}
	}
	return nil
}
