package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"paperreel/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var title string
	var taskID string

	cmd := &cobra.Command{
		Use:   "submit <pdf-url>",
		Short: "Submit a paper PDF URL for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			task, err := client.Submit(cmd.Context(), api.SubmitRequest{
				DocumentURL: args[0],
				Title:       title,
				TaskID:      taskID,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task %d queued (%s)\n", task.ID, task.TaskID)
			fmt.Fprintf(out, "Document: %s\n", task.DocumentURL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Optional display title for the task")
	cmd.Flags().StringVar(&taskID, "task-id", "", "Optional task id (generated when omitted)")
	return cmd
}
