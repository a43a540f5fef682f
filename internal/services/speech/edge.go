package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const defaultEdgeBinary = "edge-tts"

type commandRunner func(ctx context.Context, name string, args ...string) error

// EdgeSynthesizer shells out to the edge-tts command line tool.
type EdgeSynthesizer struct {
	binary string
	voice  string
	run    commandRunner
}

// EdgeOption customizes an EdgeSynthesizer.
type EdgeOption func(*EdgeSynthesizer)

// WithCommandRunner injects a custom command runner (primarily for tests).
func WithCommandRunner(r commandRunner) EdgeOption {
	return func(s *EdgeSynthesizer) {
		if r != nil {
			s.run = r
		}
	}
}

// NewEdgeSynthesizer constructs a synthesizer for the given voice.
func NewEdgeSynthesizer(binary, voice string, opts ...EdgeOption) *EdgeSynthesizer {
	s := &EdgeSynthesizer{
		binary: strings.TrimSpace(binary),
		voice:  strings.TrimSpace(voice),
		run:    defaultCommandRunner,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.binary == "" {
		s.binary = defaultEdgeBinary
	}
	return s
}

// Synthesize writes spoken audio for the text to outputPath.
func (s *EdgeSynthesizer) Synthesize(ctx context.Context, text, outputPath string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("speech: empty narration text")
	}
	args := []string{
		"--voice", s.voice,
		"--text", text,
		"--write-media", outputPath,
	}
	if err := s.run(ctx, s.binary, args...); err != nil {
		return fmt.Errorf("speech: edge-tts synthesis failed: %w", err)
	}
	return nil
}

// Binary returns the configured edge-tts executable name.
func (s *EdgeSynthesizer) Binary() string {
	return s.binary
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
