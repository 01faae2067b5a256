package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFeed()
	c.normalizeComposer()
	c.normalizeStorage()
	c.normalizeAuth()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.BookmarksPath) == "" {
		c.Paths.BookmarksPath = defaultBookmarksPath
	}
	if c.Paths.BookmarksPath, err = expandPath(c.Paths.BookmarksPath); err != nil {
		return fmt.Errorf("paths.bookmarks_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeFeed() {
	if c.Feed.PageSize <= 0 {
		c.Feed.PageSize = defaultPageSize
	}
	if c.Feed.RecentPostsLimit <= 0 {
		c.Feed.RecentPostsLimit = defaultRecentPostsLimit
	}
}

func (c *Config) normalizeComposer() {
	if c.Composer.MaxUploadMiB <= 0 {
		c.Composer.MaxUploadMiB = defaultMaxUploadMiB
	}
	if c.Composer.UndoGraceSeconds <= 0 {
		c.Composer.UndoGraceSeconds = defaultUndoGraceSeconds
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.IntentURL = strings.TrimSpace(c.Storage.IntentURL)
	c.Storage.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.PublicBaseURL), "/")
	c.Storage.KeyPrefix = strings.Trim(strings.TrimSpace(c.Storage.KeyPrefix), "/")
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = defaultStorageKeyPrefix
	}
	if c.Storage.SignTTL <= 0 {
		c.Storage.SignTTL = defaultStorageSignTTL
	}
	if c.Storage.TimeoutSecs <= 0 {
		c.Storage.TimeoutSecs = defaultStorageTimeout
	}
}

func (c *Config) normalizeAuth() {
	c.Auth.ServiceURL = strings.TrimSpace(c.Auth.ServiceURL)
	if c.Auth.Token == "" {
		c.Auth.Token = os.Getenv("DRN_AUTH_TOKEN")
	}
	if c.Auth.TimeoutSecs <= 0 {
		c.Auth.TimeoutSecs = defaultAuthTimeout
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
