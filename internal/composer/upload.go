package composer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"drn/internal/logging"
	"drn/internal/services"
)

// uploadConcurrency bounds how many files upload in parallel.
const uploadConcurrency = 4

// MediaFile is one file offered to AttachMedia.
type MediaFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// SkippedFile explains why an offered file was not attached.
type SkippedFile struct {
	Name   string
	Reason string
}

// AttachMedia validates and uploads a batch of files. Each successful file is
// appended to the draft the moment its upload resolves, so the media list
// reflects completion order rather than offer order. Invalid files are skipped
// with a per-file reason; an upload failure likewise skips only the failing
// file. Each file either fully uploads and attaches or leaves no trace.
func (c *Composer) AttachMedia(ctx context.Context, files []MediaFile) ([]MediaItem, []SkippedFile, error) {
	c.mu.Lock()
	if c.state != StateEditing && c.state != StateFailed {
		state := c.state
		c.mu.Unlock()
		return nil, nil, services.Wrap(services.ErrValidation, "composer", "attach_media", fmt.Sprintf("draft is not editable in state %s", state), nil)
	}
	c.mu.Unlock()

	if c.media == nil {
		return nil, nil, services.Wrap(services.ErrUpload, "composer", "attach_media", "media uploads are not configured", nil)
	}

	var (
		skipped []SkippedFile
		valid   []MediaFile
	)
	for _, file := range files {
		if reason, ok := c.rejectFile(file); ok {
			skipped = append(skipped, SkippedFile{Name: file.Name, Reason: reason})
			continue
		}
		valid = append(valid, file)
	}

	var items []MediaItem

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for _, file := range valid {
		file := file
		g.Go(func() error {
			item, err := c.uploadOne(gctx, file)
			c.mu.Lock()
			defer c.mu.Unlock()
			if err != nil {
				c.logger.Warn("media upload failed",
					logging.Error(err), logging.String("file", file.Name))
				skipped = append(skipped, SkippedFile{Name: file.Name, Reason: fmt.Sprintf("upload failed: %v", err)})
				return nil
			}
			items = append(items, *item)
			c.draft.Media = append(c.draft.Media, *item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, skipped, err
	}

	return items, skipped, nil
}

// rejectFile applies per-file validation: only images and videos are
// accepted, and each file must fit under the configured ceiling.
func (c *Composer) rejectFile(file MediaFile) (string, bool) {
	contentType := strings.TrimSpace(file.ContentType)
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		return fmt.Sprintf("unsupported type %q: only images and videos are accepted", contentType), true
	}
	if file.Size > c.maxUploadBytes {
		return fmt.Sprintf("file is %s, above the %s limit",
			humanize.IBytes(uint64(file.Size)), humanize.IBytes(uint64(c.maxUploadBytes))), true
	}
	if strings.TrimSpace(file.Name) == "" {
		return "file name is required", true
	}
	return "", false
}

// uploadOne runs the two-phase upload for a single file. The intent phase
// buffers nothing; the put phase streams the file content.
func (c *Composer) uploadOne(ctx context.Context, file MediaFile) (*MediaItem, error) {
	intent, err := c.media.Intent(ctx, file.Name, file.ContentType)
	if err != nil {
		return nil, err
	}

	body := file.Content
	if body == nil {
		body = bytes.NewReader(nil)
	}
	if err := c.media.Put(ctx, intent.UploadURL, file.ContentType, body, file.Size); err != nil {
		return nil, err
	}
	return &MediaItem{FileURL: intent.FileURL, ContentType: file.ContentType}, nil
}
