package mediastore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"drn/internal/logging"
	"drn/internal/textutil"
)

// Signer produces signed upload URLs and deletes stored objects. Production
// deployments back it with an object store SDK; tests use an in-memory
// implementation.
type Signer interface {
	SignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

// IntentHandlerOptions configures the upload intent endpoint.
type IntentHandlerOptions struct {
	// KeyPrefix is prepended to every object key, default "uploads".
	KeyPrefix string
	// PublicBaseURL is the base under which uploaded objects are served.
	PublicBaseURL string
	// SignTTL bounds how long an issued upload URL stays valid.
	SignTTL time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// IntentHandler serves POST upload intents and DELETE object removals.
type IntentHandler struct {
	signer Signer
	opts   IntentHandlerOptions
	logger *slog.Logger
}

// NewIntentHandler builds the intent endpoint handler.
func NewIntentHandler(signer Signer, opts IntentHandlerOptions, logger *slog.Logger) *IntentHandler {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "uploads"
	}
	if opts.SignTTL <= 0 {
		opts.SignTTL = 60 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &IntentHandler{signer: signer, opts: opts, logger: logger}
}

func (h *IntentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleIntent(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *IntentHandler) handleIntent(w http.ResponseWriter, r *http.Request) {
	var req IntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	name := textutil.SanitizeFileName(req.FileName)
	if name == "" || strings.TrimSpace(req.FileType) == "" {
		http.Error(w, "fileName and fileType are required", http.StatusBadRequest)
		return
	}

	key := fmt.Sprintf("%s/%d-%s", h.opts.KeyPrefix, h.opts.Now().UnixMilli(), name)

	uploadURL, err := h.signer.SignPut(r.Context(), key, req.FileType, h.opts.SignTTL)
	if err != nil {
		h.logger.Error("sign upload URL failed", logging.Error(err), logging.String("key", key))
		http.Error(w, "could not issue upload URL", http.StatusInternalServerError)
		return
	}

	resp := IntentResponse{
		UploadURL: uploadURL,
		FileURL:   strings.TrimRight(h.opts.PublicBaseURL, "/") + "/" + key,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("write intent response failed", logging.Error(err))
	}
}

func (h *IntentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileURL string `json:"fileUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	key, ok := h.keyFromURL(req.FileURL)
	if !ok {
		http.Error(w, "fileUrl is not under the public base URL", http.StatusBadRequest)
		return
	}

	if err := h.signer.Remove(r.Context(), key); err != nil {
		h.logger.Error("object removal failed", logging.Error(err), logging.String("key", key))
		http.Error(w, "could not remove object", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *IntentHandler) keyFromURL(fileURL string) (string, bool) {
	base := strings.TrimRight(h.opts.PublicBaseURL, "/") + "/"
	if base == "/" || !strings.HasPrefix(fileURL, base) {
		return "", false
	}
	key := strings.TrimPrefix(fileURL, base)
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}
