package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			running := statusError
			runningMsg := "stopped"
			if status.Running {
				running = statusOK
				runningMsg = "running"
			}
			fmt.Fprintln(out, renderStatusLine("Daemon", running, runningMsg, colorize))
			fmt.Fprintln(out, renderStatusLine("Queue DB", statusInfo, status.QueueDBPath, colorize))
			if status.Workflow.LastError != "" {
				fmt.Fprintln(out, renderStatusLine("Last error", statusWarn, status.Workflow.LastError, colorize))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Stages", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, health := range status.Workflow.StageHealth {
				kind := statusOK
				message := "ready"
				if !health.Ready {
					kind = statusError
					message = health.Detail
				}
				fmt.Fprintln(out, renderStatusLine(health.Name, kind, message, colorize))
			}

			if len(status.Dependencies) > 0 {
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Dependencies", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, dep := range status.Dependencies {
					kind := statusOK
					message := dep.Command
					if !dep.Available {
						kind = statusError
						if dep.Optional {
							kind = statusWarn
						}
						message = dep.Detail
					}
					fmt.Fprintln(out, renderStatusLine(dep.Name, kind, message, colorize))
				}
			}

			if len(status.Workflow.QueueStats) > 0 {
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Queue", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprint(out, renderQueueStats(status.Workflow.QueueStats))
				fmt.Fprintln(out)
			}

			if item := status.Workflow.LastItem; item != nil {
				fmt.Fprintln(out)
				fmt.Fprintf(out, "Last task: #%d %s (%s) %.0f%% %s\n",
					item.ID, item.Title, item.Status, item.Progress.Percent,
					strings.TrimSpace(item.Progress.Message))
			}
			return nil
		},
	}
}

func renderQueueStats(stats map[string]int) string {
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, fmt.Sprintf("%d", stats[key])})
	}
	return renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}
