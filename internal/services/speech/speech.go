package speech

import "context"

// Synthesizer converts narration text into an audio file on disk.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outputPath string) error
}
