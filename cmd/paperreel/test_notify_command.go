package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.TestNotification(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case resp.Detail != "":
				fmt.Fprintln(out, resp.Detail)
			case resp.Sent:
				fmt.Fprintln(out, "Test notification sent")
			default:
				fmt.Fprintln(out, "Notification not sent")
			}
			return nil
		},
	}
}
