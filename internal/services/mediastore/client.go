package mediastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"drn/internal/config"
	"drn/internal/services"
)

// IntentRequest asks the storage collaborator for a signed upload slot.
type IntentRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// IntentResponse carries the signed upload URL and the durable public URL the
// object will have once uploaded.
type IntentResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
}

// HTTPDoer describes the HTTP client used by the media store client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the upload intent endpoint and the signed URLs it issues.
type Client struct {
	intentURL string
	client    HTTPDoer
}

// NewClient builds a media store client from configuration. Returns nil when
// no intent URL is configured; callers treat a nil client as uploads disabled.
func NewClient(cfg *config.Config) *Client {
	if cfg == nil || strings.TrimSpace(cfg.Storage.IntentURL) == "" {
		return nil
	}
	timeout := time.Duration(cfg.Storage.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		intentURL: strings.TrimSpace(cfg.Storage.IntentURL),
		client:    &http.Client{Timeout: timeout},
	}
}

// NewClientWith constructs a client against an explicit intent URL, used by
// tests and by the daemon's self-hosted intent endpoint.
func NewClientWith(intentURL string, client HTTPDoer) *Client {
	return &Client{intentURL: strings.TrimSpace(intentURL), client: client}
}

// Intent requests a signed upload slot for the named file.
func (c *Client) Intent(ctx context.Context, fileName, fileType string) (IntentResponse, error) {
	payload, err := json.Marshal(IntentRequest{FileName: fileName, FileType: fileType})
	if err != nil {
		return IntentResponse{}, fmt.Errorf("marshal intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.intentURL, bytes.NewReader(payload))
	if err != nil {
		return IntentResponse{}, fmt.Errorf("build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return IntentResponse{}, services.Wrap(services.ErrUpload, "mediastore", "intent", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return IntentResponse{}, services.Wrap(services.ErrUpload, "mediastore", "intent", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var intent IntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return IntentResponse{}, fmt.Errorf("decode intent response: %w", err)
	}
	if intent.UploadURL == "" || intent.FileURL == "" {
		return IntentResponse{}, services.Wrap(services.ErrUpload, "mediastore", "intent", "incomplete intent response", nil)
	}
	return intent, nil
}

// Put uploads raw bytes to the signed URL from an earlier intent. The request
// body is the file content with no wrapping, matching what the signature
// covers.
func (c *Client) Put(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if size >= 0 {
		req.ContentLength = size
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUpload, "mediastore", "put", "upload failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrUpload, "mediastore", "put", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	return nil
}

// Delete removes the object behind a public file URL. Best effort: callers
// treat failures as non-fatal cleanup problems.
func (c *Client) Delete(ctx context.Context, fileURL string) error {
	payload, err := json.Marshal(map[string]string{"fileUrl": fileURL})
	if err != nil {
		return fmt.Errorf("marshal delete request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.intentURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUpload, "mediastore", "delete", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices && resp.StatusCode != http.StatusNotFound {
		return services.Wrap(services.ErrUpload, "mediastore", "delete", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	return nil
}
