package testsupport

import (
	"path/filepath"
	"testing"

	"drn/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.BookmarksPath = filepath.Join(base, "bookmarks.json")
	cfg.Paths.SocketPath = filepath.Join(base, "drnd.sock")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithPageSize overrides the feed page size on the test config.
func WithPageSize(size int) ConfigOption {
	return func(c *config.Config) {
		c.Feed.PageSize = size
	}
}

// WithUploadCeiling overrides the composer upload ceiling on the test config.
func WithUploadCeiling(mib int) ConfigOption {
	return func(c *config.Config) {
		c.Composer.MaxUploadMiB = mib
	}
}

// WithUndoGrace overrides the soft-delete grace period on the test config.
func WithUndoGrace(seconds int) ConfigOption {
	return func(c *config.Config) {
		c.Composer.UndoGraceSeconds = seconds
	}
}

// WithStorage points the storage collaborator at a test server.
func WithStorage(intentURL, publicBaseURL string) ConfigOption {
	return func(c *config.Config) {
		c.Storage.IntentURL = intentURL
		c.Storage.PublicBaseURL = publicBaseURL
	}
}
