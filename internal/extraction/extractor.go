package extraction

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"log/slog"

	"paperreel/internal/config"
	"paperreel/internal/logging"
	"paperreel/internal/notifications"
	"paperreel/internal/queue"
	"paperreel/internal/services"
	"paperreel/internal/services/mineru"
	"paperreel/internal/stage"
)

// Client is the extraction surface the stage depends on.
type Client interface {
	ExtractMarkdown(ctx context.Context, documentURL string) ([]byte, error)
}

// Extractor converts a task's document URL into extracted markdown.
type Extractor struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	client   Client
	notifier notifications.Service
}

// NewExtractor constructs the extraction stage handler using default dependencies.
func NewExtractor(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Extractor {
	client := mineru.NewClient(mineru.Config{
		BaseURL:      cfg.Extraction.BaseURL,
		Token:        cfg.Extraction.Token,
		EnableOCR:    cfg.Extraction.EnableOCR,
		PollInterval: time.Duration(cfg.Extraction.PollInterval) * time.Second,
		MaxWait:      time.Duration(cfg.Extraction.MaxWait) * time.Second,
	})
	return NewExtractorWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewExtractorWithDependencies allows injecting collaborators (used in tests).
func NewExtractorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client Client, notifier notifications.Service) *Extractor {
	return &Extractor{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "extraction"),
		client:   client,
		notifier: notifier,
	}
}

func (e *Extractor) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	item.InitProgress("Extracting", "Preparing document extraction")
	logger.Info("starting extraction preparation", logging.String("document_url", strings.TrimSpace(item.DocumentURL)))
	return nil
}

func (e *Extractor) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	documentURL := strings.TrimSpace(item.DocumentURL)
	if documentURL == "" {
		return services.Wrap(
			services.ErrValidation, "extracting", "validate inputs",
			"No document URL present; submit the task with a document link", nil)
	}

	layout := item.Layout(e.cfg.Paths.StagingDir)
	if err := os.MkdirAll(layout.Root(), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "extracting", "create workspace",
			"Failed to create task workspace", err)
	}

	item.SetProgress("Extracting", "Waiting for document extraction", 10)
	e.persistProgress(ctx, item)
	logger.Info("submitting document for extraction", logging.String("document_url", documentURL))

	markdown, err := e.client.ExtractMarkdown(ctx, documentURL)
	if err != nil {
		if errors.Is(err, mineru.ErrTimeout) {
			return services.Wrap(services.ErrTimeout, "extracting", "wait for extraction",
				"Document extraction did not finish in time", err)
		}
		return services.Wrap(services.ErrExternalTool, "extracting", "extract document",
			"Document extraction failed", err)
	}
	if len(strings.TrimSpace(string(markdown))) == 0 {
		return services.Wrap(services.ErrExternalTool, "extracting", "extract document",
			"Document extraction produced no text", nil)
	}

	if err := os.WriteFile(layout.DocumentPath(), markdown, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "extracting", "write document",
			"Failed to write extracted document", err)
	}
	item.DocumentPath = layout.DocumentPath()
	item.SetProgressComplete("Extracted", "Document extracted")
	logger.Info("extraction completed",
		logging.String("document_path", item.DocumentPath),
		logging.Int("document_bytes", len(markdown)),
	)

	if e.notifier != nil {
		if err := e.notifier.NotifyExtractionCompleted(ctx, item.Title); err != nil {
			logger.Warn("extraction notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies the MinerU credentials are configured.
func (e *Extractor) HealthCheck(ctx context.Context) stage.Health {
	const name = "extraction"
	if e.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(e.cfg.Extraction.Token) == "" {
		return stage.Unhealthy(name, "extraction token not configured")
	}
	if e.client == nil {
		return stage.Unhealthy(name, "extraction client unavailable")
	}
	return stage.Healthy(name)
}

func (e *Extractor) persistProgress(ctx context.Context, item *queue.Item) {
	if e.store == nil {
		return
	}
	if err := e.store.Update(ctx, item); err != nil {
		logging.WithContext(ctx, e.logger).Warn("failed to persist extraction progress", logging.Error(err))
	}
}

var _ stage.Handler = (*Extractor)(nil)
