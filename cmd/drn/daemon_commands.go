package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"drn/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				rows := [][]string{
					{"Running", yesNo(resp.Running)},
					{"PID", strconv.Itoa(resp.PID)},
					{"Database", resp.DatabasePath},
					{"Lock file", resp.LockFilePath},
					{"Posts", strconv.Itoa(resp.PostCount)},
					{"Live comment streams", strconv.Itoa(resp.Subscribers)},
				}
				if resp.PendingDelete != 0 {
					rows = append(rows, []string{"Pending delete", strconv.FormatInt(resp.PendingDelete, 10)})
				}
				fmt.Fprintln(stdout, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
				return nil
			})
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the drnd daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return err
				}
				if resp.Stopped {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Stop request sent")
				}
				return nil
			})
		},
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing notification response")
				}
				switch {
				case resp.Message != "":
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				case resp.Sent:
					fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
				}
				return nil
			})
		},
	}
}
