package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"drn/internal/config"
	"drn/internal/news"
	"drn/internal/textutil"
)

// MustOpenStore opens a news.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *news.Store {
	t.Helper()

	store, err := news.Open(cfg)
	if err != nil {
		t.Fatalf("news.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// PostOption mutates a seed post before insertion.
type PostOption func(*news.Post)

// SeedPost inserts a published post for tests using the provided store.
func SeedPost(t testing.TB, store *news.Store, title string, opts ...PostOption) *news.Post {
	t.Helper()

	created := time.Now().UTC()
	post := &news.Post{
		Title:     title,
		Slug:      textutil.PostSlug(title, created),
		Content:   fmt.Sprintf("<p>%s</p>", title),
		Summary:   title + " summary",
		Category:  "world",
		Location:  "Test City",
		Status:    news.StatusPublished,
		CreatedAt: created,
		UserID:    "user-test",
	}
	for _, opt := range opts {
		opt(post)
	}

	inserted, err := store.CreatePost(context.Background(), post)
	if err != nil {
		t.Fatalf("store.CreatePost: %v", err)
	}
	return inserted
}

// WithCreatedAt sets the seed post creation time (and re-derives the slug so
// it stays unique).
func WithCreatedAt(created time.Time) PostOption {
	return func(p *news.Post) {
		p.CreatedAt = created
		p.Slug = textutil.PostSlug(p.Title, created)
	}
}

// WithViews sets the seed post view counter.
func WithViews(views int64) PostOption {
	return func(p *news.Post) {
		p.Views = views
	}
}

// WithSummary sets the seed post summary.
func WithSummary(summary string) PostOption {
	return func(p *news.Post) {
		p.Summary = summary
	}
}

// WithCategory sets the seed post category.
func WithCategory(category string) PostOption {
	return func(p *news.Post) {
		p.Category = category
	}
}

// WithLocation sets the seed post location.
func WithLocation(location string) PostOption {
	return func(p *news.Post) {
		p.Location = location
	}
}

// WithBreaking flags the seed post as breaking news.
func WithBreaking() PostOption {
	return func(p *news.Post) {
		p.Breaking = true
	}
}

// WithAuthor sets the seed post owning user.
func WithAuthor(userID string) PostOption {
	return func(p *news.Post) {
		p.UserID = userID
	}
}

// WithMediaURLs sets the seed post media list.
func WithMediaURLs(urls ...string) PostOption {
	return func(p *news.Post) {
		p.MediaURLs = urls
	}
}
