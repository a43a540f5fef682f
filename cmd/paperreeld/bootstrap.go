package main

import (
	"log/slog"

	"paperreel/internal/config"
	"paperreel/internal/extraction"
	"paperreel/internal/queue"
	"paperreel/internal/render"
	"paperreel/internal/storyboard"
	"paperreel/internal/workflow"
)

func buildStageSet(cfg *config.Config, store *queue.Store, logger *slog.Logger) workflow.StageSet {
	return workflow.StageSet{
		Extractor:    extraction.NewExtractor(cfg, store, logger),
		Storyboarder: storyboard.NewGenerator(cfg, store, logger),
		Imager:       render.NewImager(cfg, store, logger),
		Animator:     render.NewAnimator(cfg, store, logger),
		Localizer:    render.NewLocalizer(cfg, store, logger),
		Narrator:     render.NewNarrator(cfg, store, logger),
		Captioner:    render.NewCaptioner(cfg, store, logger),
		Voicer:       render.NewVoicer(cfg, store, logger),
		Merger:       render.NewMerger(cfg, store, logger),
	}
}
