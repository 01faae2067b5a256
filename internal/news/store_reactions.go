package news

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// UpsertReaction records a reaction keyed by (post, user, type). Resubmission
// refreshes the existing row instead of duplicating it.
func (s *Store) UpsertReaction(ctx context.Context, reaction *Reaction) error {
	if reaction == nil {
		return errors.New("nil reaction")
	}
	if reaction.PostID == 0 {
		return errors.New("reaction post id is required")
	}
	if reaction.UserID == "" {
		return errors.New("reaction user id is required")
	}
	if !ValidReactionType(reaction.Type) {
		return fmt.Errorf("invalid reaction type %q", reaction.Type)
	}

	createdAt := reaction.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO reactions (post_id, user_id, type, created_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT (post_id, user_id, type) DO UPDATE SET created_at = excluded.created_at`,
		reaction.PostID,
		reaction.UserID,
		reaction.Type,
		createdAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("upsert reaction: %w", err)
	}
	return nil
}

// ListReactions returns all reaction rows for the supplied post identifiers.
func (s *Store) ListReactions(ctx context.Context, postIDs []int64) ([]*Reaction, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	args := make([]any, len(postIDs))
	for i, id := range postIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		fmt.Sprintf("SELECT post_id, user_id, type, created_at FROM reactions WHERE post_id IN (%s)", makePlaceholders(len(postIDs))),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	defer rows.Close()

	var reactions []*Reaction
	for rows.Next() {
		var (
			reaction   Reaction
			typeStr    string
			createdRaw string
		)
		if err := rows.Scan(&reaction.PostID, &reaction.UserID, &typeStr, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		reaction.Type = ReactionType(typeStr)
		if !ValidReactionType(reaction.Type) {
			return nil, fmt.Errorf("reaction on post %d has invalid type %q", reaction.PostID, typeStr)
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			reaction.CreatedAt = created
		}
		reactions = append(reactions, &reaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reactions: %w", err)
	}
	return reactions, nil
}

// CountReactions folds reaction rows into per-post aggregates. Posts without
// rows are absent from the map; callers treat missing counts as zero.
func CountReactions(reactions []*Reaction) map[int64]ReactionCounts {
	counts := make(map[int64]ReactionCounts)
	for _, reaction := range reactions {
		c := counts[reaction.PostID]
		switch reaction.Type {
		case ReactionLike:
			c.Like++
		case ReactionDislike:
			c.Dislike++
		case ReactionSave:
			c.Save++
		}
		counts[reaction.PostID] = c
	}
	return counts
}
