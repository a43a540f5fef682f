package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"paperreel/internal/api"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the task queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			items, err := client.List(cmd.Context(), listStatuses...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Queue is empty")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Status", "Progress", "Created"},
				buildQueueListRows(items),
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func buildQueueListRows(items []api.Task) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		title := item.Title
		if title == "" {
			title = item.DocumentURL
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			title,
			item.Status,
			fmt.Sprintf("%.0f%%", item.Progress.Percent),
			item.CreatedAt,
		})
	}
	return rows
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completedOnly bool
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove tasks from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if completedOnly && failedOnly {
				return fmt.Errorf("--completed and --failed are mutually exclusive")
			}
			scope := "all"
			if completedOnly {
				scope = "completed"
			}
			if failedOnly {
				scope = "failed"
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			count, err := client.Clear(cmd.Context(), scope)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d task(s)\n", count)
			return nil
		},
	}

	cmd.Flags().BoolVar(&completedOnly, "completed", false, "Only remove completed tasks")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only remove failed tasks")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [task-id]",
		Short: "Retry failed tasks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var count int64
			if len(args) == 1 {
				id, parseErr := strconv.ParseInt(args[0], 10, 64)
				if parseErr != nil {
					return fmt.Errorf("invalid task id %q", args[0])
				}
				count, err = client.Retry(cmd.Context(), id)
			} else {
				count, err = client.RetryAllFailed(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d task(s)\n", count)
			return nil
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show aggregate queue health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			health, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			rows := [][]string{
				{"Total", strconv.Itoa(health.Total)},
				{"Pending", strconv.Itoa(health.Pending)},
				{"Processing", strconv.Itoa(health.Processing)},
				{"Completed", strconv.Itoa(health.Completed)},
				{"Failed", strconv.Itoa(health.Failed)},
				{"Review", strconv.Itoa(health.Review)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"State", "Count"}, rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
