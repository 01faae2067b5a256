package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LocalStore is a filesystem-backed Signer. Signed URLs point at the store's
// own PUT handler and carry a one-time token; objects land under the store's
// directory and are served back by FileHandler. It keeps single-node
// deployments working without an object-storage account.
type LocalStore struct {
	dir     string
	baseURL string
	now     func() time.Time

	mu      sync.Mutex
	pending map[string]pendingPut
}

type pendingPut struct {
	key         string
	contentType string
	expires     time.Time
}

// NewLocalStore creates the media directory and returns a store whose signed
// URLs are rooted at baseURL.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		pending: make(map[string]pendingPut),
	}, nil
}

// SignPut issues a one-time upload URL for key that expires after ttl.
func (s *LocalStore) SignPut(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("object key is required")
	}
	token := uuid.NewString()

	s.mu.Lock()
	s.pending[token] = pendingPut{key: key, contentType: contentType, expires: s.now().Add(ttl)}
	s.mu.Unlock()

	return s.baseURL + "/media/put/" + token, nil
}

// Remove deletes the object stored under key. Missing objects are not errors.
func (s *LocalStore) Remove(_ context.Context, key string) error {
	path, err := s.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// PutHandler accepts uploads against previously signed URLs. It expects to be
// mounted under /media/put/.
func (s *LocalStore) PutHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		token := strings.TrimPrefix(r.URL.Path, "/media/put/")
		if token == "" || strings.Contains(token, "/") {
			http.Error(w, "missing upload token", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		put, ok := s.pending[token]
		if ok {
			delete(s.pending, token)
		}
		s.mu.Unlock()

		switch {
		case !ok:
			http.Error(w, "unknown upload token", http.StatusForbidden)
			return
		case s.now().After(put.expires):
			http.Error(w, "upload URL expired", http.StatusForbidden)
			return
		case put.contentType != "" && r.Header.Get("Content-Type") != put.contentType:
			http.Error(w, "content type does not match signature", http.StatusForbidden)
			return
		}

		path, err := s.objectPath(put.key)
		if err != nil {
			http.Error(w, "invalid object key", http.StatusBadRequest)
			return
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			http.Error(w, "could not store object", http.StatusInternalServerError)
			return
		}

		file, err := os.Create(path)
		if err != nil {
			http.Error(w, "could not store object", http.StatusInternalServerError)
			return
		}
		if _, err := io.Copy(file, r.Body); err != nil {
			file.Close()
			_ = os.Remove(path)
			http.Error(w, "upload interrupted", http.StatusInternalServerError)
			return
		}
		if err := file.Close(); err != nil {
			http.Error(w, "could not store object", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

// FileHandler serves stored objects. Mount it under /media/.
func (s *LocalStore) FileHandler() http.Handler {
	return http.StripPrefix("/media/", http.FileServer(http.Dir(s.dir)))
}

func (s *LocalStore) objectPath(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.dir, clean), nil
}

// SetClock overrides the store's clock, used by expiry tests.
func (s *LocalStore) SetClock(now func() time.Time) {
	s.now = now
}
