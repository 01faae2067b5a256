package news

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a post.
type Status string

const (
	// StatusDraft is the transient composer-side state; drafts are never
	// persisted, the constant exists so transitions can be validated.
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusScheduled Status = "scheduled"
	StatusFailed    Status = "failed"
)

var persistedStatuses = []Status{
	StatusPublished,
	StatusScheduled,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(persistedStatuses))
	for _, status := range persistedStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ValidStatus reports whether the value is a persistable post status.
func ValidStatus(status Status) bool {
	_, ok := statusSet[status]
	return ok
}

type statusTransition struct {
	from Status
	to   Status
}

var allowedTransitions = []statusTransition{
	{from: StatusDraft, to: StatusPublished},
	{from: StatusDraft, to: StatusScheduled},
	{from: StatusDraft, to: StatusFailed},
	{from: StatusScheduled, to: StatusPublished},
	{from: StatusScheduled, to: StatusFailed},
	{from: StatusPublished, to: StatusFailed},
}

// CanTransition reports whether a post may move between the two statuses.
func CanTransition(from, to Status) bool {
	for _, t := range allowedTransitions {
		if t.from == from && t.to == to {
			return true
		}
	}
	return false
}

// Categories is the fixed category enumeration posts must use.
var Categories = []string{
	"world", "politics", "business", "finance", "technology", "sports",
	"entertainment", "gaming", "education", "health", "environment",
	"weather", "law-crime", "innovation", "culture-society", "travel",
	"religion", "india", "city-updates",
}

var categorySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		set[c] = struct{}{}
	}
	return set
}()

// ValidCategory reports whether the category belongs to the fixed set.
// The empty category is allowed; it marks an uncategorized post.
func ValidCategory(category string) bool {
	if category == "" {
		return true
	}
	_, ok := categorySet[strings.ToLower(category)]
	return ok
}

// Post is a published or scheduled news item persisted in SQLite.
type Post struct {
	ID          int64
	Title       string
	Slug        string
	Content     string
	Summary     string
	Category    string
	Location    string
	MediaURLs   []string
	Status      Status
	CreatedAt   time.Time
	ScheduledAt *time.Time
	Views       int64
	Breaking    bool
	UserID      string
	Deleted     bool
}

// Validate rejects malformed posts before they reach the store.
func (p *Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("post title is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("post content is required")
	}
	if strings.TrimSpace(p.Slug) == "" {
		return fmt.Errorf("post slug is required")
	}
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("post user id is required")
	}
	if !ValidStatus(p.Status) {
		return fmt.Errorf("invalid post status %q", p.Status)
	}
	if !ValidCategory(p.Category) {
		return fmt.Errorf("invalid post category %q", p.Category)
	}
	return nil
}

// Comment is a reply attached to a post. Comments are never edited and are
// removed in bulk when their parent post is purged.
type Comment struct {
	ID         int64
	PostID     int64
	Slug       string
	Content    string
	AuthorName string
	Verified   bool
	CreatedAt  time.Time
}

// AnonymousAuthor is the authorship recorded when none is supplied.
const AnonymousAuthor = "Anonymous"

// ReactionType enumerates the supported reaction kinds.
type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
	ReactionSave    ReactionType = "save"
)

// ValidReactionType reports whether the value is a known reaction kind.
func ValidReactionType(t ReactionType) bool {
	switch t {
	case ReactionLike, ReactionDislike, ReactionSave:
		return true
	}
	return false
}

// Reaction is a (post, user, type) triple with upsert semantics: at most one
// row exists per triple.
type Reaction struct {
	PostID    int64
	UserID    string
	Type      ReactionType
	CreatedAt time.Time
}

// ReactionCounts aggregates reaction rows per post.
type ReactionCounts struct {
	Like    int
	Dislike int
	Save    int
}

// SortMode selects feed ordering.
type SortMode string

const (
	// SortRecency orders by creation timestamp, newest first.
	SortRecency SortMode = "recency"
	// SortTrending orders by view count, highest first. Ties keep fetch
	// order; there is no secondary key.
	SortTrending SortMode = "trending"
)

// ValidSortMode reports whether the value is a known sort mode.
func ValidSortMode(mode SortMode) bool {
	return mode == SortRecency || mode == SortTrending
}
