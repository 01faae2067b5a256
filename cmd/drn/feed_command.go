package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"drn/internal/api"
)

func newFeedCommand(ctx *commandContext) *cobra.Command {
	var (
		page     int
		sortMode string
		category string
		location string
		query    string
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Browse the public feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			params.Set("page", strconv.Itoa(page))
			if sortMode != "" {
				params.Set("sort", sortMode)
			}
			if category != "" {
				params.Set("category", category)
			}
			if location != "" {
				params.Set("location", location)
			}
			if query != "" {
				params.Set("q", query)
			}

			var feedPage api.FeedPage
			if err := ctx.apiGet("/api/feed?"+params.Encode(), &feedPage); err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if len(feedPage.Breaking) > 0 {
				fmt.Fprintln(stdout, "Breaking:")
				for _, post := range feedPage.Breaking {
					fmt.Fprintf(stdout, "  ! %s (%s)\n", post.Title, post.Slug)
				}
				fmt.Fprintln(stdout)
			}

			if len(feedPage.Posts) == 0 {
				fmt.Fprintln(stdout, "No posts match")
				return nil
			}

			rows := make([][]string, 0, len(feedPage.Posts))
			for _, post := range feedPage.Posts {
				rows = append(rows, []string{
					strconv.FormatInt(post.ID, 10),
					post.Title,
					post.Category,
					post.Location,
					post.PublishedAgo,
					strconv.FormatInt(post.Views, 10),
					reactionSummary(post.Reactions),
					strconv.Itoa(post.Comments),
					yesNo(post.Bookmarked),
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"ID", "Title", "Category", "Location", "Published", "Views", "Reactions", "Comments", "Saved"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			))
			if feedPage.HasMore {
				fmt.Fprintf(stdout, "More posts available; rerun with --page %d\n", page+1)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Feed page to fetch")
	cmd.Flags().StringVar(&sortMode, "sort", "", "Sort mode: recency or trending")
	cmd.Flags().StringVar(&category, "category", "", "Only show posts in this category")
	cmd.Flags().StringVar(&location, "location", "", "Only show posts matching this location")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Only show posts whose title or summary matches")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Show a post with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var detail api.PostDetail
			if err := ctx.apiGet("/api/posts/"+url.PathEscape(args[0]), &detail); err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			post := detail.Post
			fmt.Fprintf(stdout, "%s\n", post.Title)
			fmt.Fprintf(stdout, "%s · %s · %s · %d views\n", post.Category, post.Location, post.PublishedAgo, post.Views)
			if post.Breaking {
				fmt.Fprintln(stdout, "BREAKING")
			}
			if post.Summary != "" {
				fmt.Fprintf(stdout, "\n%s\n", post.Summary)
			}
			fmt.Fprintf(stdout, "\n%s\n", post.Content)
			if len(post.MediaURLs) > 0 {
				fmt.Fprintln(stdout, "\nMedia:")
				for _, u := range post.MediaURLs {
					fmt.Fprintf(stdout, "  %s\n", u)
				}
			}
			fmt.Fprintf(stdout, "\nReactions: %s\n", reactionSummary(post.Reactions))

			fmt.Fprintf(stdout, "\nComments (%d):\n", len(detail.Comments))
			for _, comment := range detail.Comments {
				author := comment.AuthorName
				if comment.Verified {
					author += " ✓"
				}
				fmt.Fprintf(stdout, "  %s: %s\n", author, comment.Content)
			}
			return nil
		},
	}
}

func reactionSummary(counts api.ReactionCounts) string {
	parts := []string{
		fmt.Sprintf("%d like", counts.Like),
		fmt.Sprintf("%d dislike", counts.Dislike),
		fmt.Sprintf("%d save", counts.Save),
	}
	return strings.Join(parts, ", ")
}
