package mediastore_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"drn/internal/logging"
	"drn/internal/services/mediastore"
)

type memorySigner struct {
	lastKey  string
	lastType string
	lastTTL  time.Duration
	removed  []string
}

func (m *memorySigner) SignPut(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	m.lastKey = key
	m.lastType = contentType
	m.lastTTL = ttl
	return "https://storage.example.com/signed/" + key, nil
}

func (m *memorySigner) Remove(_ context.Context, key string) error {
	m.removed = append(m.removed, key)
	return nil
}

func TestIntentHandlerDerivesTimestampedKey(t *testing.T) {
	signer := &memorySigner{}
	fixed := time.UnixMilli(1700000000000)
	handler := mediastore.NewIntentHandler(signer, mediastore.IntentHandlerOptions{
		PublicBaseURL: "https://cdn.example.com",
		SignTTL:       60 * time.Second,
		Now:           func() time.Time { return fixed },
	}, logging.NewNop())

	body := strings.NewReader(`{"fileName":"press photo.jpg","fileType":"image/jpeg"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if signer.lastKey != "uploads/1700000000000-press_photo.jpg" {
		t.Fatalf("unexpected key %q", signer.lastKey)
	}
	if signer.lastType != "image/jpeg" || signer.lastTTL != 60*time.Second {
		t.Fatalf("unexpected sign params: type=%q ttl=%v", signer.lastType, signer.lastTTL)
	}
	if !strings.Contains(rec.Body.String(), `"fileUrl":"https://cdn.example.com/uploads/1700000000000-press_photo.jpg"`) {
		t.Fatalf("unexpected response body: %s", rec.Body.String())
	}
}

func TestIntentHandlerRejectsIncompleteRequests(t *testing.T) {
	handler := mediastore.NewIntentHandler(&memorySigner{}, mediastore.IntentHandlerOptions{
		PublicBaseURL: "https://cdn.example.com",
	}, logging.NewNop())

	for _, body := range []string{`{}`, `{"fileName":"a.jpg"}`, `{"fileType":"image/jpeg"}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestIntentHandlerDeleteMapsURLToKey(t *testing.T) {
	signer := &memorySigner{}
	handler := mediastore.NewIntentHandler(signer, mediastore.IntentHandlerOptions{
		PublicBaseURL: "https://cdn.example.com",
	}, logging.NewNop())

	body := strings.NewReader(`{"fileUrl":"https://cdn.example.com/uploads/123-clip.mp4"}`)
	req := httptest.NewRequest(http.MethodDelete, "/api/upload", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if len(signer.removed) != 1 || signer.removed[0] != "uploads/123-clip.mp4" {
		t.Fatalf("unexpected removals: %v", signer.removed)
	}

	foreign := strings.NewReader(`{"fileUrl":"https://elsewhere.example.com/uploads/123-clip.mp4"}`)
	req = httptest.NewRequest(http.MethodDelete, "/api/upload", foreign)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("foreign URL should be rejected, got %d", rec.Code)
	}
}

func TestTwoPhaseUploadAgainstLocalStore(t *testing.T) {
	dir := t.TempDir()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	store, err := mediastore.NewLocalStore(dir, server.URL)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	handler := mediastore.NewIntentHandler(store, mediastore.IntentHandlerOptions{
		PublicBaseURL: server.URL + "/media",
	}, logging.NewNop())
	mux.Handle("/api/upload", handler)
	mux.Handle("/media/put/", store.PutHandler())
	mux.Handle("/media/", store.FileHandler())

	client := mediastore.NewClientWith(server.URL+"/api/upload", server.Client())

	intent, err := client.Intent(context.Background(), "clip.mp4", "video/mp4")
	if err != nil {
		t.Fatalf("Intent: %v", err)
	}
	if !strings.HasPrefix(intent.FileURL, server.URL+"/media/uploads/") {
		t.Fatalf("unexpected file URL %q", intent.FileURL)
	}

	content := "not really a video"
	if err := client.Put(context.Background(), intent.UploadURL, "video/mp4", strings.NewReader(content), int64(len(content))); err != nil {
		t.Fatalf("Put: %v", err)
	}

	key := strings.TrimPrefix(intent.FileURL, server.URL+"/media/")
	stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("read stored object: %v", err)
	}
	if string(stored) != content {
		t.Fatalf("stored content mismatch: %q", stored)
	}

	// A signed URL is single use.
	if err := client.Put(context.Background(), intent.UploadURL, "video/mp4", strings.NewReader(content), int64(len(content))); err == nil {
		t.Fatal("second PUT against the same signed URL should fail")
	}

	if err := client.Delete(context.Background(), intent.FileURL); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(key))); !os.IsNotExist(err) {
		t.Fatalf("object should be gone, stat err=%v", err)
	}
}

func TestExpiredSignedURLRejected(t *testing.T) {
	dir := t.TempDir()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	store, err := mediastore.NewLocalStore(dir, server.URL)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	mux.Handle("/media/put/", store.PutHandler())

	uploadURL, err := store.SignPut(context.Background(), "uploads/1-a.jpg", "image/jpeg", 60*time.Second)
	if err != nil {
		t.Fatalf("SignPut: %v", err)
	}

	store.SetClock(func() time.Time { return time.Now().Add(2 * time.Minute) })

	client := mediastore.NewClientWith(server.URL+"/api/upload", server.Client())
	err = client.Put(context.Background(), uploadURL, "image/jpeg", strings.NewReader("x"), 1)
	if err == nil {
		t.Fatal("expired signed URL should be rejected")
	}
}
