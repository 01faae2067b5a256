package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"drn/internal/api"
	"drn/internal/bookmarks"
)

func newCommentCommand(ctx *commandContext) *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "comment <slug> <text>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{
				"slug":       args[0],
				"content":    strings.Join(args[1:], " "),
				"authorName": author,
			}
			var comment api.Comment
			if err := ctx.apiPost("/api/comments", payload, &comment); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Comment posted as %s\n", comment.AuthorName)
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Display name for the comment (defaults to Anonymous)")
	return cmd
}

func newReactCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "react <post-id> <like|dislike|save>",
		Short: "React to a post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			payload := map[string]any{"postId": id, "type": args[1]}
			var counts api.ReactionCounts
			if err := ctx.apiPost("/api/reactions", payload, &counts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Post %d now has %s\n", id, reactionSummary(counts))
			return nil
		},
	}
}

// newBookmarkCommand edits the bookmark file directly. The file is flock
// guarded, so this stays safe while the daemon has it open too.
func newBookmarkCommand(ctx *commandContext) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "bookmark [post-id]",
		Short: "Toggle a post bookmark, or list bookmarks with --list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := bookmarks.Open(cfg.Paths.BookmarksPath)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if list || len(args) == 0 {
				ids := store.IDs()
				if len(ids) == 0 {
					fmt.Fprintln(stdout, "No bookmarks")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintf(stdout, "%d\n", id)
				}
				return nil
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			bookmarked, err := store.Toggle(id)
			if err != nil {
				return err
			}
			if bookmarked {
				fmt.Fprintf(stdout, "Post %d bookmarked\n", id)
			} else {
				fmt.Fprintf(stdout, "Post %d removed from bookmarks\n", id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List bookmarked post ids")
	return cmd
}
