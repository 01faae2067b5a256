package main

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"drn/internal/api"
	"drn/internal/services/mediastore"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var (
		title       string
		content     string
		contentFile string
		summary     string
		category    string
		location    string
		breaking    bool
		schedule    string
		mediaPaths  []string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a new post",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			body := content
			if contentFile != "" {
				raw, err := os.ReadFile(contentFile)
				if err != nil {
					return fmt.Errorf("read content file: %w", err)
				}
				body = string(raw)
			}

			if schedule != "" {
				if _, err := time.Parse(time.RFC3339, schedule); err != nil {
					return fmt.Errorf("--schedule must be RFC3339, e.g. 2026-09-01T08:00:00Z")
				}
			}

			mediaURLs, err := uploadMedia(cmd, ctx, mediaPaths)
			if err != nil {
				return err
			}

			payload := map[string]any{
				"title":       title,
				"content":     body,
				"summary":     summary,
				"category":    category,
				"location":    location,
				"breaking":    breaking,
				"scheduledAt": schedule,
				"mediaUrls":   mediaURLs,
			}
			var post api.Post
			if err := ctx.apiPost("/api/posts", payload, &post); err != nil {
				return err
			}

			if post.Status == "scheduled" {
				fmt.Fprintf(stdout, "Post scheduled for %s: %s\n", post.ScheduledAt, post.Slug)
			} else {
				fmt.Fprintf(stdout, "Published: %s\n", post.Slug)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Post title")
	cmd.Flags().StringVar(&content, "content", "", "Post body")
	cmd.Flags().StringVar(&contentFile, "content-file", "", "Read the post body from a file")
	cmd.Flags().StringVar(&summary, "summary", "", "Short summary shown in the feed")
	cmd.Flags().StringVar(&category, "category", "", "Post category")
	cmd.Flags().StringVar(&location, "location", "", "Post location")
	cmd.Flags().BoolVar(&breaking, "breaking", false, "Flag the post as breaking news")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Publish later at this RFC3339 time")
	cmd.Flags().StringArrayVarP(&mediaPaths, "media", "m", nil, "Image or video file to attach (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// uploadMedia pushes each attachment through the two-phase signed-URL flow
// and returns the public URLs to embed in the post. Files that cannot be
// attached are reported and skipped; the publish itself still proceeds.
func uploadMedia(cmd *cobra.Command, ctx *commandContext, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	intentURL := strings.TrimSpace(cfg.Storage.IntentURL)
	if intentURL == "" {
		base, err := ctx.apiBaseURL()
		if err != nil {
			return nil, err
		}
		intentURL = base + "/api/upload"
	}
	client := mediastore.NewClientWith(intentURL, &http.Client{Timeout: 5 * time.Minute})
	ceiling := int64(cfg.Composer.MaxUploadMiB) << 20

	stdout := cmd.OutOrStdout()
	urls := make([]string, 0, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(stdout, "Skipping %s: %v\n", name, err)
			continue
		}
		if info.Size() > ceiling {
			fmt.Fprintf(stdout, "Skipping %s: file is %s, above the %s limit\n",
				name, humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(ceiling)))
			continue
		}

		contentType := mime.TypeByExtension(filepath.Ext(path))
		if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
			fmt.Fprintf(stdout, "Skipping %s: unsupported type %q, only images and videos can be attached\n", name, contentType)
			continue
		}

		fileURL, err := uploadOne(cmd, client, path, name, contentType, info.Size())
		if err != nil {
			fmt.Fprintf(stdout, "Skipping %s: %v\n", name, err)
			continue
		}
		urls = append(urls, fileURL)
	}
	return urls, nil
}

func uploadOne(cmd *cobra.Command, client *mediastore.Client, path, name, contentType string, size int64) (string, error) {
	intent, err := client.Intent(cmd.Context(), name, contentType)
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	bar := progressbar.DefaultBytes(size, name)
	defer bar.Close()

	var body io.Reader = io.TeeReader(file, bar)
	if err := client.Put(cmd.Context(), intent.UploadURL, contentType, body, size); err != nil {
		return "", err
	}
	return intent.FileURL, nil
}
