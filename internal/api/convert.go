package api

import (
	"time"

	"github.com/dustin/go-humanize"

	"drn/internal/news"
)

// FromPost converts a store record to its API representation.
func FromPost(post *news.Post) Post {
	if post == nil {
		return Post{}
	}

	dto := Post{
		ID:        post.ID,
		Title:     post.Title,
		Slug:      post.Slug,
		Content:   post.Content,
		Summary:   post.Summary,
		Category:  post.Category,
		Location:  post.Location,
		MediaURLs: post.MediaURLs,
		Status:    string(post.Status),
		Views:     post.Views,
		Breaking:  post.Breaking,
	}
	if !post.CreatedAt.IsZero() {
		dto.CreatedAt = post.CreatedAt.UTC().Format(dateTimeFormat)
		dto.PublishedAgo = humanize.Time(post.CreatedAt)
	}
	if post.ScheduledAt != nil && !post.ScheduledAt.IsZero() {
		dto.ScheduledAt = post.ScheduledAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromPosts converts a slice of store records into API DTOs.
func FromPosts(posts []*news.Post) []Post {
	if len(posts) == 0 {
		return nil
	}
	out := make([]Post, 0, len(posts))
	for _, post := range posts {
		out = append(out, FromPost(post))
	}
	return out
}

// FromComment converts a comment record to its API representation.
func FromComment(comment *news.Comment) Comment {
	if comment == nil {
		return Comment{}
	}
	dto := Comment{
		ID:         comment.ID,
		PostID:     comment.PostID,
		Slug:       comment.Slug,
		Content:    comment.Content,
		AuthorName: comment.AuthorName,
		Verified:   comment.Verified,
	}
	if !comment.CreatedAt.IsZero() {
		dto.CreatedAt = comment.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromComments converts comment records into API DTOs.
func FromComments(comments []*news.Comment) []Comment {
	if len(comments) == 0 {
		return nil
	}
	out := make([]Comment, 0, len(comments))
	for _, comment := range comments {
		out = append(out, FromComment(comment))
	}
	return out
}

// FromReactionCounts converts a store aggregate to its API representation.
func FromReactionCounts(counts news.ReactionCounts) ReactionCounts {
	return ReactionCounts{Like: counts.Like, Dislike: counts.Dislike, Save: counts.Save}
}

// ParseTimestamp reads an API timestamp back into a time.Time.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(dateTimeFormat, value)
}
