package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"paperreel/internal/extraction"
	"paperreel/internal/logging"
	"paperreel/internal/queue"
	"paperreel/internal/render"
	"paperreel/internal/storyboard"
	"paperreel/internal/workflow"
)

// newRunCommand processes a single paper end to end in the foreground,
// without a daemon. Useful for one-off conversions and debugging.
func newRunCommand(ctx *commandContext) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "run <pdf-url>",
		Short: "Process one paper to a finished video in the foreground",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}
			defer store.Close()

			manager := workflow.NewManager(cfg, store, logger)
			manager.ConfigureStages(workflow.StageSet{
				Extractor:    extraction.NewExtractor(cfg, store, logger),
				Storyboarder: storyboard.NewGenerator(cfg, store, logger),
				Imager:       render.NewImager(cfg, store, logger),
				Animator:     render.NewAnimator(cfg, store, logger),
				Localizer:    render.NewLocalizer(cfg, store, logger),
				Narrator:     render.NewNarrator(cfg, store, logger),
				Captioner:    render.NewCaptioner(cfg, store, logger),
				Voicer:       render.NewVoicer(cfg, store, logger),
				Merger:       render.NewMerger(cfg, store, logger),
			})

			item, err := store.NewTask(cmd.Context(), args[0], title)
			if err != nil {
				return fmt.Errorf("enqueue task: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processing task %d (%s)\n", item.ID, item.TaskID)

			if err := manager.Start(cmd.Context()); err != nil {
				return fmt.Errorf("start workflow: %w", err)
			}
			defer manager.Stop()

			lastStage := ""
			for {
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-time.After(time.Second):
				}
				current, err := store.GetByID(cmd.Context(), item.ID)
				if err != nil {
					return fmt.Errorf("poll task: %w", err)
				}
				if current == nil {
					return fmt.Errorf("task %d disappeared from the queue", item.ID)
				}
				if current.ProgressStage != lastStage && current.ProgressStage != "" {
					fmt.Fprintf(out, "  %s\n", current.ProgressStage)
					lastStage = current.ProgressStage
				}
				if !queue.IsTerminal(current.Status) {
					continue
				}
				switch current.Status {
				case queue.StatusCompleted:
					if current.MergedFile != "" {
						fmt.Fprintf(out, "Done: %s\n", current.MergedFile)
					} else {
						fmt.Fprintln(out, "Done: no frames qualified, empty result")
					}
					return nil
				case queue.StatusReview:
					return fmt.Errorf("task needs review: %s", current.ReviewReason)
				default:
					return fmt.Errorf("task failed: %s", current.ErrorMessage)
				}
			}
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Optional display title for the task")
	return cmd
}
