package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateComposer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFeed() error {
	if c.Feed.PageSize < 1 || c.Feed.PageSize > 100 {
		return errors.New("feed.page_size must be between 1 and 100")
	}
	if c.Feed.RecentPostsLimit < 1 || c.Feed.RecentPostsLimit > 50 {
		return errors.New("feed.recent_posts_limit must be between 1 and 50")
	}
	return nil
}

func (c *Config) validateComposer() error {
	if c.Composer.MaxUploadMiB < 1 || c.Composer.MaxUploadMiB > 1024 {
		return errors.New("composer.max_upload_mib must be between 1 and 1024")
	}
	if c.Composer.UndoGraceSeconds < 1 || c.Composer.UndoGraceSeconds > 60 {
		return errors.New("composer.undo_grace_seconds must be between 1 and 60")
	}
	return nil
}

func (c *Config) validateStorage() error {
	// Intent URL may be empty for read-only deployments; publishing with media
	// requires it and the composer reports that at upload time.
	if c.Storage.IntentURL != "" && c.Storage.PublicBaseURL == "" {
		return errors.New("storage.public_base_url must be set when storage.intent_url is configured")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
