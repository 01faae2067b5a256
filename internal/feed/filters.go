package feed

import (
	"strings"

	"drn/internal/news"
)

// Filters narrows the visible portion of the fetched posts. All populated
// fields must match for a post to remain visible.
type Filters struct {
	// Category matches exactly, case-insensitive.
	Category string
	// Location matches as a case-insensitive substring.
	Location string
	// Query matches as a case-insensitive substring of title or summary.
	Query string
}

// Empty reports whether no filter field is populated.
func (f Filters) Empty() bool {
	return f.Category == "" && f.Location == "" && f.Query == ""
}

// Matches reports whether a post passes every populated filter.
func (f Filters) Matches(post *news.Post) bool {
	if post == nil {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, post.Category) {
		return false
	}
	if f.Location != "" && !containsFold(post.Location, f.Location) {
		return false
	}
	if f.Query != "" && !containsFold(post.Title, f.Query) && !containsFold(post.Summary, f.Query) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
