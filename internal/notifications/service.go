package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"drn/internal/config"
)

const userAgent = "drn/0.1.0"

// Service defines the notification surface exposed to the composer and
// daemon.
type Service interface {
	NotifyPostPublished(ctx context.Context, title, slug string) error
	NotifyPostScheduled(ctx context.Context, title string, at time.Time) error
	NotifyPublishFailed(ctx context.Context, title string, err error) error
	NotifyPostPurged(ctx context.Context, title string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		publishAlerts: cfg.Notifications.Publish,
		deleteAlerts:  cfg.Notifications.Delete,
		errorAlerts:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	publishAlerts bool
	deleteAlerts  bool
	errorAlerts   bool
}

func (n *ntfyService) NotifyPostPublished(ctx context.Context, title, slug string) error {
	if !n.publishAlerts {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "DRN - Published",
		message: fmt.Sprintf("Published: %s\nSlug: %s", title, strings.TrimSpace(slug)),
		tags:    []string{"drn", "publish", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPostScheduled(ctx context.Context, title string, at time.Time) error {
	if !n.publishAlerts {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "DRN - Scheduled",
		message: fmt.Sprintf("Scheduled: %s for %s", title, at.Format(time.RFC1123)),
		tags:    []string{"drn", "publish", "scheduled"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPublishFailed(ctx context.Context, title string, cause error) error {
	if !n.errorAlerts {
		return nil
	}
	title = strings.TrimSpace(title)
	reason := "unknown"
	if cause != nil {
		reason = strings.TrimSpace(cause.Error())
	}
	data := payload{
		title:    "DRN - Publish Failed",
		message:  fmt.Sprintf("Publish failed: %s\nReason: %s", title, reason),
		tags:     []string{"drn", "publish", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPostPurged(ctx context.Context, title string) error {
	if !n.deleteAlerts {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "DRN - Deleted",
		message: fmt.Sprintf("Permanently removed: %s", title),
		tags:    []string{"drn", "delete", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errorAlerts {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "DRN - Error",
		message:  builder.String(),
		tags:     []string{"drn", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "DRN - Test",
		message:  "Notification system test",
		tags:     []string{"drn", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPostPublished(context.Context, string, string) error       { return nil }
func (noopService) NotifyPostScheduled(context.Context, string, time.Time) error    { return nil }
func (noopService) NotifyPublishFailed(context.Context, string, error) error        { return nil }
func (noopService) NotifyPostPurged(context.Context, string) error                  { return nil }
func (noopService) NotifyError(context.Context, error, string) error                { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
