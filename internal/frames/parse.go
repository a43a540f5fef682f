package frames

import (
	"errors"
	"fmt"

	"paperreel/internal/services/llm"
)

// ParseStoryboard decodes and validates storyboard frames from raw
// model output. Code fences and surrounding prose are tolerated.
// Missing text fields decode to empty strings so later stages can skip
// incomplete frames; frame ids must be unique.
func ParseStoryboard(content string) ([]Frame, error) {
	var parsed []Frame
	if err := llm.DecodeLLMJSON(content, &parsed); err != nil {
		// Some models wrap the list in an object.
		var wrapped struct {
			Frames []Frame `json:"frames"`
		}
		if wrapErr := llm.DecodeLLMJSON(content, &wrapped); wrapErr != nil || len(wrapped.Frames) == 0 {
			return nil, fmt.Errorf("parse storyboard: %w", err)
		}
		parsed = wrapped.Frames
	}
	if len(parsed) == 0 {
		return nil, errors.New("parse storyboard: no frames")
	}

	seen := make(map[int]struct{}, len(parsed))
	for _, frame := range parsed {
		if _, dup := seen[frame.FrameID]; dup {
			return nil, fmt.Errorf("parse storyboard: duplicate frame_id %d", frame.FrameID)
		}
		seen[frame.FrameID] = struct{}{}
	}
	return parsed, nil
}
