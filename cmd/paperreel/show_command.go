package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show details for a single task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			task, err := client.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader(fmt.Sprintf("Task #%d", task.ID), colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Title", statusInfo, task.Title, colorize))
			fmt.Fprintln(out, renderStatusLine("Status", statusInfo, task.Status, colorize))
			fmt.Fprintln(out, renderStatusLine("Lane", statusInfo, task.ProcessingLane, colorize))
			fmt.Fprintln(out, renderStatusLine("Progress", statusInfo,
				fmt.Sprintf("%.0f%% %s", task.Progress.Percent, task.Progress.Message), colorize))
			fmt.Fprintln(out, renderStatusLine("Document", statusInfo, task.DocumentURL, colorize))
			if task.DocumentPath != "" {
				fmt.Fprintln(out, renderStatusLine("Markdown", statusInfo, task.DocumentPath, colorize))
			}
			if task.StoryboardPath != "" {
				fmt.Fprintln(out, renderStatusLine("Storyboard", statusInfo, task.StoryboardPath, colorize))
			}
			if task.MergedFile != "" {
				fmt.Fprintln(out, renderStatusLine("Final video", statusOK, task.MergedFile, colorize))
			}
			if task.NeedsReview {
				fmt.Fprintln(out, renderStatusLine("Review", statusWarn, task.ReviewReason, colorize))
			}
			if task.ErrorMessage != "" {
				fmt.Fprintln(out, renderStatusLine("Error", statusError, task.ErrorMessage, colorize))
			}
			return nil
		},
	}
}
