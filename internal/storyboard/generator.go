package storyboard

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"log/slog"

	"paperreel/internal/config"
	"paperreel/internal/frames"
	"paperreel/internal/logging"
	"paperreel/internal/notifications"
	"paperreel/internal/queue"
	"paperreel/internal/services"
	"paperreel/internal/services/llm"
	"paperreel/internal/stage"
	"paperreel/internal/textutil"
)

// Client is the completion surface the stage depends on.
type Client interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator turns an extracted document into validated storyboard frames.
type Generator struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	client   Client
	notifier notifications.Service
}

// NewGenerator constructs the storyboard stage handler using default dependencies.
func NewGenerator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Generator {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return NewGeneratorWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewGeneratorWithDependencies allows injecting collaborators (used in tests).
func NewGeneratorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client Client, notifier notifications.Service) *Generator {
	return &Generator{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "storyboard"),
		client:   client,
		notifier: notifier,
	}
}

func (g *Generator) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, g.logger)
	item.InitProgress("Storyboarding", "Preparing storyboard generation")
	logger.Info("starting storyboard preparation", logging.String("document_path", strings.TrimSpace(item.DocumentPath)))
	return nil
}

func (g *Generator) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, g.logger)
	documentPath := strings.TrimSpace(item.DocumentPath)
	if documentPath == "" {
		return services.Wrap(
			services.ErrValidation, "storyboarding", "validate inputs",
			"No extracted document present; run extraction first", nil)
	}
	document, err := os.ReadFile(documentPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "storyboarding", "read document",
			"Extracted document is missing from the workspace; rerun extraction", err)
	}
	userPrompt := textutil.TruncateRunes(string(document), maxDocumentRunes)

	layout := item.Layout(g.cfg.Paths.StagingDir)
	if err := os.MkdirAll(layout.Root(), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "storyboarding", "create workspace",
			"Failed to create task workspace", err)
	}

	item.SetProgress("Storyboarding", "Generating storyboard script", 20)
	g.persistProgress(ctx, item)

	raw, err := g.client.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "storyboarding", "generate storyboard",
			"Storyboard generation failed", err)
	}
	g.writeRawOutput(ctx, layout.StoryboardRawPath(), raw)

	parsed, parseErr := frames.ParseStoryboard(raw)
	if parseErr != nil {
		// One strict retry, matching the generator's contract: a second
		// unparseable response sends the task to review.
		logger.Warn("storyboard output unparseable, retrying with strict instruction", logging.Error(parseErr))
		item.SetProgress("Storyboarding", "Retrying storyboard generation", 40)
		g.persistProgress(ctx, item)

		raw, err = g.client.CompleteJSON(ctx, systemPrompt, userPrompt+"\n\n"+strictRetryInstruction)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "storyboarding", "retry storyboard",
				"Storyboard generation failed on retry", err)
		}
		g.writeRawOutput(ctx, layout.StoryboardRawPath(), raw)
		parsed, parseErr = frames.ParseStoryboard(raw)
		if parseErr != nil {
			return services.Wrap(services.ErrValidation, "storyboarding", "parse storyboard",
				"Storyboard output is not valid JSON after retry; review the raw model output", parseErr)
		}
	}

	storyboardJSON, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "storyboarding", "encode storyboard",
			"Failed to encode storyboard frames", err)
	}
	if err := os.WriteFile(layout.StoryboardPath(), storyboardJSON, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "storyboarding", "write storyboard",
			"Failed to write storyboard file", err)
	}

	envelope := frames.NewEnvelope(parsed)
	encoded, err := envelope.Encode()
	if err != nil {
		return services.Wrap(services.ErrTransient, "storyboarding", "encode frames",
			"Failed to encode frame envelope", err)
	}
	item.StoryboardPath = layout.StoryboardPath()
	item.FramesJSON = encoded
	item.SetProgressComplete("Storyboarded", "Storyboard generated")
	logger.Info("storyboard completed",
		logging.String("storyboard_path", item.StoryboardPath),
		logging.Int("frame_count", len(parsed)),
	)

	if g.notifier != nil {
		if err := g.notifier.NotifyStoryboardCompleted(ctx, item.Title, len(parsed)); err != nil {
			logger.Warn("storyboard notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies the language model credentials are configured.
func (g *Generator) HealthCheck(ctx context.Context) stage.Health {
	const name = "storyboard"
	if g.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(g.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy(name, "llm api key not configured")
	}
	if g.client == nil {
		return stage.Unhealthy(name, "llm client unavailable")
	}
	return stage.Healthy(name)
}

// writeRawOutput preserves the model's raw response for debugging; a
// write failure is logged but never fails the stage.
func (g *Generator) writeRawOutput(ctx context.Context, path, raw string) {
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		logging.WithContext(ctx, g.logger).Warn("failed to write raw storyboard output", logging.Error(err))
	}
}

func (g *Generator) persistProgress(ctx context.Context, item *queue.Item) {
	if g.store == nil {
		return
	}
	if err := g.store.Update(ctx, item); err != nil {
		logging.WithContext(ctx, g.logger).Warn("failed to persist storyboard progress", logging.Error(err))
	}
}

var _ stage.Handler = (*Generator)(nil)
