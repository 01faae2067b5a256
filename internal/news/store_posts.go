package news

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrPostNotFound indicates a lookup for a post that does not exist or has
// been soft-deleted.
var ErrPostNotFound = errors.New("post not found")

// CreatePost inserts a new post record. The slug must already be derived and
// unique; the store rejects malformed records rather than repairing them.
func (s *Store) CreatePost(ctx context.Context, post *Post) (*Post, error) {
	if post == nil {
		return nil, errors.New("nil post")
	}
	if err := post.Validate(); err != nil {
		return nil, err
	}

	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	mediaJSON, err := json.Marshal(post.MediaURLs)
	if err != nil {
		return nil, fmt.Errorf("marshal media urls: %w", err)
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO posts (
            title, slug, content, summary, category, location, media_urls,
            status, created_at, scheduled_at, views, breaking, user_id, is_deleted
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		post.Title,
		post.Slug,
		post.Content,
		nullableString(post.Summary),
		nullableString(post.Category),
		nullableString(post.Location),
		string(mediaJSON),
		post.Status,
		post.CreatedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(post.ScheduledAt),
		post.Views,
		boolToInt(post.Breaking),
		post.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a post by identifier, including soft-deleted rows so the
// purge path can still resolve them.
func (s *Store) GetByID(ctx context.Context, id int64) (*Post, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		fmt.Sprintf("SELECT %s FROM posts WHERE id = ?", postColumns),
		id,
	)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post by id: %w", err)
	}
	return post, nil
}

// GetBySlug fetches a visible post by its public lookup key.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		fmt.Sprintf("SELECT %s FROM posts WHERE slug = ? AND is_deleted = 0", postColumns),
		slug,
	)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post by slug: %w", err)
	}
	return post, nil
}

// IncrementViews bumps the monotonic view counter for a detail-page load and
// returns the new value.
func (s *Store) IncrementViews(ctx context.Context, id int64) (int64, error) {
	if err := s.execWithoutResultRetry(
		ctx,
		"UPDATE posts SET views = views + 1 WHERE id = ?",
		id,
	); err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	var views int64
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT views FROM posts WHERE id = ?", id).Scan(&views); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrPostNotFound
		}
		return 0, fmt.Errorf("read views: %w", err)
	}
	return views, nil
}

// ListPage returns one page of visible posts in the requested order. Trending
// ties keep database fetch order; there is no secondary sort key.
func (s *Store) ListPage(ctx context.Context, mode SortMode, limit, offset int) ([]*Post, error) {
	if !ValidSortMode(mode) {
		return nil, fmt.Errorf("invalid sort mode %q", mode)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("page limit must be positive")
	}
	if offset < 0 {
		offset = 0
	}

	orderBy := "created_at DESC"
	if mode == SortTrending {
		orderBy = "views DESC"
	}

	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		fmt.Sprintf("SELECT %s FROM posts WHERE is_deleted = 0 ORDER BY %s LIMIT ? OFFSET ?", postColumns, orderBy),
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list page: %w", err)
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// ListRecentByUser returns the author's most recent visible posts, newest
// first, including media URLs.
func (s *Store) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*Post, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		fmt.Sprintf("SELECT %s FROM posts WHERE user_id = ? AND is_deleted = 0 ORDER BY created_at DESC LIMIT ?", postColumns),
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent posts: %w", err)
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// CountPosts returns the number of visible posts.
func (s *Store) CountPosts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(1) FROM posts WHERE is_deleted = 0").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

// MarkDeleted sets the soft-delete flag, hiding the post from listings while
// the undo grace period runs.
func (s *Store) MarkDeleted(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, "UPDATE posts SET is_deleted = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark deleted: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Restore clears the soft-delete flag after an undo.
func (s *Store) Restore(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, "UPDATE posts SET is_deleted = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("restore post: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// UpdateStatus transitions a post between lifecycle statuses, enforcing the
// transition table.
func (s *Store) UpdateStatus(ctx context.Context, id int64, to Status) error {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(post.Status, to) {
		return fmt.Errorf("invalid status transition %s -> %s", post.Status, to)
	}
	if err := s.execWithoutResultRetry(ctx, "UPDATE posts SET status = ? WHERE id = ?", to, id); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// PurgePost permanently removes a post and its dependents. Comments are
// deleted before the post row; a different order risks orphaned comments.
// Media object deletion happens upstream because the store has no reach into
// object storage.
func (s *Store) PurgePost(ctx context.Context, id int64) error {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin purge tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE post_id = ?", id); err != nil {
		return fmt.Errorf("purge comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM reactions WHERE post_id = ?", id); err != nil {
		return fmt.Errorf("purge reactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id); err != nil {
		return fmt.Errorf("purge post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit purge: %w", err)
	}
	return nil
}

// ListBreaking returns the breaking-flagged subset of the supplied posts.
// Detection is scoped to the posts passed in (the freshly fetched page), not
// the full dataset.
func ListBreaking(posts []*Post) []*Post {
	var breaking []*Post
	for _, post := range posts {
		if post.Breaking {
			breaking = append(breaking, post)
		}
	}
	return breaking
}
