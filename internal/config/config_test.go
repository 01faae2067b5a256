package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"drn/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "drn")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7930" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Feed.PageSize != 6 {
		t.Fatalf("unexpected page size: %d", cfg.Feed.PageSize)
	}
	if cfg.Composer.MaxUploadMiB != 30 {
		t.Fatalf("unexpected upload ceiling: %d", cfg.Composer.MaxUploadMiB)
	}
	if cfg.Composer.UndoGraceSeconds != 5 {
		t.Fatalf("unexpected undo grace: %d", cfg.Composer.UndoGraceSeconds)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "news.db") {
		t.Fatalf("unexpected db path: %q", cfg.DatabasePath())
	}
}

func TestLoadReadsTOMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[feed]
page_size = 12

[composer]
max_upload_mib = 10
undo_grace_seconds = 8

[storage]
intent_url = "https://store.example/api/upload"
public_base_url = "https://cdn.example/drn/"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Feed.PageSize != 12 {
		t.Fatalf("expected page size 12, got %d", cfg.Feed.PageSize)
	}
	if cfg.Composer.MaxUploadMiB != 10 {
		t.Fatalf("expected ceiling 10 MiB, got %d", cfg.Composer.MaxUploadMiB)
	}
	if cfg.Composer.UndoGraceSeconds != 8 {
		t.Fatalf("expected grace 8s, got %d", cfg.Composer.UndoGraceSeconds)
	}
	if cfg.Storage.PublicBaseURL != "https://cdn.example/drn" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Storage.PublicBaseURL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"grace beyond ceiling", func(c *config.Config) { c.Composer.UndoGraceSeconds = 120 }, "undo_grace_seconds"},
		{"page size ceiling", func(c *config.Config) { c.Feed.PageSize = 500 }, "page_size"},
		{"intent without public base", func(c *config.Config) { c.Storage.IntentURL = "https://x" }, "public_base_url"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "yaml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected error for existing file")
	}
}
