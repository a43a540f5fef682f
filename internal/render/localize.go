package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"paperreel/internal/config"
	"paperreel/internal/logging"
	"paperreel/internal/queue"
	"paperreel/internal/services"
	"paperreel/internal/stage"
	"paperreel/internal/textutil"
)

// Localizer downloads generated clips into the task workspace. Clips
// the provider already wrote locally are referenced in place.
type Localizer struct {
	stageBase
	httpClient *http.Client
}

// NewLocalizer constructs the localization stage handler.
func NewLocalizer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Localizer {
	return NewLocalizerWithDependencies(cfg, store, logger, &http.Client{Timeout: 5 * time.Minute})
}

// NewLocalizerWithDependencies allows injecting collaborators (used in tests).
func NewLocalizerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, httpClient *http.Client) *Localizer {
	return &Localizer{stageBase: newStageBase(cfg, store, logger, "localizer"), httpClient: httpClient}
}

func (l *Localizer) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Localizing", "Preparing video downloads")
	return nil
}

func (l *Localizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, l.logger)
	env, err := l.loadFrames(item, "localizing")
	if err != nil {
		return err
	}
	layout := l.layout(item)
	if err := os.MkdirAll(layout.VideosDir(), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "localizing", "create videos dir",
			"Failed to create videos directory", err)
	}

	total := len(env.Frames)
	for i := range env.Frames {
		frame := &env.Frames[i]
		frameLogger := logger.With(logging.Int(logging.FieldFrameID, frame.FrameID))
		if frame.VideoURL == "" {
			frameLogger.Info("no video for frame, skipping localization")
			continue
		}
		if frame.VideoFile != "" {
			if _, err := os.Stat(frame.VideoFile); err == nil {
				frameLogger.Info("video already local, skipping")
				continue
			}
			frame.VideoFile = ""
		}

		if !isRemoteURL(frame.VideoURL) {
			frame.VideoFile = frame.VideoURL
			frameLogger.Info("video already on disk", logging.String("video_file", frame.VideoFile))
			continue
		}

		target := layout.FrameVideo(frame.FrameID)
		if name := providerFilename(frame.VideoURL); name != "" {
			target = filepath.Join(layout.VideosDir(), name)
		}
		if err := l.download(ctx, frame.VideoURL, target); err != nil {
			if l.abortOnFrameFault() {
				return services.Wrap(services.ErrExternalTool, "localizing", "download video",
					"Video download failed", err)
			}
			frameLogger.Warn("video download failed, frame will be dropped", logging.Error(err))
			continue
		}
		frame.VideoFile = target
		frameLogger.Info("video downloaded", logging.String("video_file", target))

		item.SetProgress("Localizing", frameMessage("Downloaded video for", i+1, total), frameProgress(i+1, total))
		l.persistFrames(ctx, item, env)
	}

	l.persistFrames(ctx, item, env)
	item.SetProgressComplete("Localized", "Frame videos localized")
	return nil
}

// HealthCheck verifies the staging directory is configured.
func (l *Localizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "localizer"
	if l.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(l.cfg.Paths.StagingDir) == "" {
		return stage.Unhealthy(name, "staging directory not configured")
	}
	return stage.Healthy(name)
}

func (l *Localizer) download(ctx context.Context, url, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create video file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(target)
		return fmt.Errorf("write video file: %w", err)
	}
	return out.Close()
}

// providerFilename keeps the provider's file name for a downloaded
// clip: the last URL path segment with the query stripped. Returns ""
// when the URL carries no usable name, in which case the caller falls
// back to the frame-numbered path.
func providerFilename(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(parsed.Path)
	if base == "" || base == "." || base == "/" {
		return ""
	}
	return textutil.SanitizeFileName(base)
}

func isRemoteURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

var _ stage.Handler = (*Localizer)(nil)
