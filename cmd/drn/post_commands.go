package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"drn/internal/ipc"
)

func newRecentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List your most recent posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecentPosts()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Posts) == 0 {
					fmt.Fprintln(stdout, "No posts yet")
					return nil
				}
				rows := make([][]string, 0, len(resp.Posts))
				for _, post := range resp.Posts {
					rows = append(rows, []string{
						strconv.FormatInt(post.ID, 10),
						post.Title,
						post.Status,
						post.PublishedAgo,
						strconv.FormatInt(post.Views, 10),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Title", "Status", "Published", "Views"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete one of your posts (undoable for a few seconds)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DeletePost(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"Post %d deleted; run `drn undo` within %d seconds to restore it\n",
					resp.PostID, resp.UndoGraceSeconds)
				return nil
			})
		},
	}
}

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Restore the most recently deleted post",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.UndoDelete()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Post %d restored\n", resp.PostID)
				return nil
			})
		},
	}
}
