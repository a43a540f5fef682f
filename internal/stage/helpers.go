package stage

import (
	"paperreel/internal/frames"
	"paperreel/internal/services"
)

// LoadFrames parses an item's stored frame envelope.
// On failure it returns a services.ErrValidation suitable for stage Execute methods.
func LoadFrames(raw string) (frames.Envelope, error) {
	env, err := frames.Decode(raw)
	if err != nil {
		return frames.Envelope{}, services.Wrap(
			services.ErrValidation, "stage", "parse frames",
			"Frame envelope missing or invalid; rerun storyboarding", err)
	}
	return env, nil
}
