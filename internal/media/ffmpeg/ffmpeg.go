package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"paperreel/internal/media/ffprobe"
	"paperreel/internal/textutil"
)

var probeMedia = ffprobe.Inspect

type commandRunner func(ctx context.Context, name string, args ...string) error

// CaptionStyle controls how burned captions are rendered.
type CaptionStyle struct {
	FontFile  string
	FontSize  int
	LineWidth int
}

// Service wraps the ffmpeg and ffprobe binaries.
type Service struct {
	ffmpegBinary  string
	ffprobeBinary string
	run           commandRunner
}

// Option customizes a Service.
type Option func(*Service)

// WithCommandRunner injects a custom command runner (primarily for tests).
func WithCommandRunner(r commandRunner) Option {
	return func(s *Service) {
		if r != nil {
			s.run = r
		}
	}
}

// NewService constructs a Service for the given binaries.
func NewService(ffmpegBinary, ffprobeBinary string, opts ...Option) *Service {
	s := &Service{
		ffmpegBinary:  strings.TrimSpace(ffmpegBinary),
		ffprobeBinary: strings.TrimSpace(ffprobeBinary),
		run:           defaultCommandRunner,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ffmpegBinary == "" {
		s.ffmpegBinary = "ffmpeg"
	}
	if s.ffprobeBinary == "" {
		s.ffprobeBinary = "ffprobe"
	}
	return s
}

// Binary returns the configured ffmpeg executable name.
func (s *Service) Binary() string {
	return s.ffmpegBinary
}

// AddCaption burns the caption text onto the input clip. Long captions
// are wrapped so fullwidth text stays inside the frame.
func (s *Service) AddCaption(ctx context.Context, input, output, caption string, style CaptionStyle) error {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return errors.New("ffmpeg: empty caption")
	}
	if style.LineWidth > 0 {
		caption = strings.Join(textutil.WrapToWidth(caption, style.LineWidth), "\n")
	}
	fontSize := style.FontSize
	if fontSize <= 0 {
		fontSize = 36
	}

	// drawtext reads the caption from a file so the text itself needs
	// no filter escaping.
	captionFile := output + ".caption.txt"
	if err := os.WriteFile(captionFile, []byte(caption), 0o644); err != nil {
		return fmt.Errorf("ffmpeg: write caption text: %w", err)
	}
	defer os.Remove(captionFile)

	options := []string{
		"textfile=" + escapeFilterValue(captionFile),
		"fontsize=" + strconv.Itoa(fontSize),
		"fontcolor=white",
		"borderw=2",
		"bordercolor=black",
		"box=1",
		"boxcolor=black@0.4",
		"boxborderw=12",
		"x=(w-text_w)/2",
		"y=h-text_h-(h/10)",
		"line_spacing=8",
	}
	if font := strings.TrimSpace(style.FontFile); font != "" {
		options = append([]string{"fontfile=" + escapeFilterValue(font)}, options...)
	}

	args := []string{
		"-y",
		"-i", input,
		"-vf", "drawtext=" + strings.Join(options, ":"),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		output,
	}
	if err := s.run(ctx, s.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("ffmpeg: burn caption: %w", err)
	}
	return nil
}

// MuxAudio combines a clip with its narration track. The output keeps
// the clip duration; shorter narration is padded with silence so the
// video is never truncated.
func (s *Service) MuxAudio(ctx context.Context, video, audio, output string) error {
	result, err := probeMedia(ctx, s.ffprobeBinary, video)
	if err != nil {
		return fmt.Errorf("ffmpeg: probe clip duration: %w", err)
	}
	duration := result.DurationSeconds()

	args := []string{
		"-y",
		"-i", video,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
	}
	if duration > 0 {
		args = append(args, "-af", "apad", "-t", strconv.FormatFloat(duration, 'f', 6, 64))
	} else {
		args = append(args, "-shortest")
	}
	args = append(args, output)
	if err := s.run(ctx, s.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("ffmpeg: mux narration: %w", err)
	}
	return nil
}

// Concatenate joins the input clips in the given order without
// re-encoding.
func (s *Service) Concatenate(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return errors.New("ffmpeg: no clips to concatenate")
	}

	var list strings.Builder
	for _, input := range inputs {
		absolute, err := filepath.Abs(input)
		if err != nil {
			return fmt.Errorf("ffmpeg: resolve clip path: %w", err)
		}
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(absolute, "'", `'\''`))
	}
	listFile := output + ".list.txt"
	if err := os.WriteFile(listFile, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("ffmpeg: write concat list: %w", err)
	}
	defer os.Remove(listFile)

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		output,
	}
	if err := s.run(ctx, s.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("ffmpeg: concatenate clips: %w", err)
	}
	return nil
}

// escapeFilterValue escapes a value used inside a filtergraph option.
func escapeFilterValue(value string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
	)
	return replacer.Replace(value)
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
