package news

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const postColumns = "id, title, slug, content, summary, category, location, media_urls, status, created_at, scheduled_at, views, breaking, user_id, is_deleted"

func scanPost(scanner interface{ Scan(dest ...any) error }) (*Post, error) {
	var (
		id           int64
		title        string
		slug         string
		content      string
		summary      sql.NullString
		category     sql.NullString
		location     sql.NullString
		mediaRaw     sql.NullString
		statusStr    string
		createdRaw   string
		scheduledRaw sql.NullString
		views        int64
		breaking     sql.NullInt64
		userID       string
		deleted      sql.NullInt64
	)

	if err := scanner.Scan(
		&id,
		&title,
		&slug,
		&content,
		&summary,
		&category,
		&location,
		&mediaRaw,
		&statusStr,
		&createdRaw,
		&scheduledRaw,
		&views,
		&breaking,
		&userID,
		&deleted,
	); err != nil {
		return nil, err
	}

	status := Status(statusStr)
	if !ValidStatus(status) {
		return nil, fmt.Errorf("post %d has invalid status %q", id, statusStr)
	}

	post := &Post{
		ID:       id,
		Title:    title,
		Slug:     slug,
		Content:  content,
		Summary:  summary.String,
		Category: category.String,
		Location: location.String,
		Status:   status,
		Views:    views,
		UserID:   userID,
	}
	if breaking.Valid {
		post.Breaking = breaking.Int64 != 0
	}
	if deleted.Valid {
		post.Deleted = deleted.Int64 != 0
	}

	if mediaRaw.Valid && mediaRaw.String != "" {
		if err := json.Unmarshal([]byte(mediaRaw.String), &post.MediaURLs); err != nil {
			return nil, fmt.Errorf("post %d has malformed media_urls: %w", id, err)
		}
	}

	created, err := parseTimeString(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("post %d has malformed created_at: %w", id, err)
	}
	post.CreatedAt = created

	if scheduledRaw.Valid && scheduledRaw.String != "" {
		scheduled, err := parseTimeString(scheduledRaw.String)
		if err != nil {
			return nil, fmt.Errorf("post %d has malformed scheduled_at: %w", id, err)
		}
		post.ScheduledAt = &scheduled
	}
	return post, nil
}

const commentColumns = "id, post_id, slug, content, author_name, is_verified, created_at"

func scanComment(scanner interface{ Scan(dest ...any) error }) (*Comment, error) {
	var (
		id         int64
		postID     int64
		slug       string
		content    string
		authorName sql.NullString
		verified   sql.NullInt64
		createdRaw string
	)
	if err := scanner.Scan(&id, &postID, &slug, &content, &authorName, &verified, &createdRaw); err != nil {
		return nil, err
	}

	comment := &Comment{
		ID:         id,
		PostID:     postID,
		Slug:       slug,
		Content:    content,
		AuthorName: authorName.String,
	}
	if comment.AuthorName == "" {
		comment.AuthorName = AnonymousAuthor
	}
	if verified.Valid {
		comment.Verified = verified.Int64 != 0
	}
	created, err := parseTimeString(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("comment %d has malformed created_at: %w", id, err)
	}
	comment.CreatedAt = created
	return comment, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
