package news

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// InsertComment appends a comment to a post. Empty trimmed content is
// rejected; missing authorship defaults to Anonymous.
func (s *Store) InsertComment(ctx context.Context, comment *Comment) (*Comment, error) {
	if comment == nil {
		return nil, errors.New("nil comment")
	}
	content := strings.TrimSpace(comment.Content)
	if content == "" {
		return nil, errors.New("comment content is required")
	}
	if comment.PostID == 0 {
		return nil, errors.New("comment post id is required")
	}
	if comment.Slug == "" {
		return nil, errors.New("comment slug is required")
	}
	author := strings.TrimSpace(comment.AuthorName)
	if author == "" {
		author = AnonymousAuthor
	}
	createdAt := comment.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO comments (post_id, slug, content, author_name, is_verified, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		comment.PostID,
		comment.Slug,
		content,
		author,
		boolToInt(comment.Verified),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	inserted := &Comment{
		ID:         id,
		PostID:     comment.PostID,
		Slug:       comment.Slug,
		Content:    content,
		AuthorName: author,
		Verified:   comment.Verified,
		CreatedAt:  createdAt,
	}
	return inserted, nil
}

// ListComments returns a post's comments, newest first.
func (s *Store) ListComments(ctx context.Context, slug string) ([]*Comment, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		fmt.Sprintf("SELECT %s FROM comments WHERE slug = ? ORDER BY created_at DESC", commentColumns),
		slug,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// CountComments returns the number of comments attached to a post.
func (s *Store) CountComments(ctx context.Context, postID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		"SELECT COUNT(1) FROM comments WHERE post_id = ?",
		postID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return count, nil
}
