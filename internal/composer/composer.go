package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"drn/internal/logging"
	"drn/internal/news"
	"drn/internal/notifications"
	"drn/internal/sched"
	"drn/internal/services"
	"drn/internal/services/authsvc"
	"drn/internal/services/mediastore"
	"drn/internal/textutil"
)

// Options wires the composer's collaborators.
type Options struct {
	Store    *news.Store
	Media    *mediastore.Client
	Auth     authsvc.Service
	Sched    *sched.Scheduler
	Notifier notifications.Service
	Logger   *slog.Logger

	// MaxUploadBytes is the per-file upload ceiling.
	MaxUploadBytes int64
	// UndoGrace is how long a deleted post can still be restored.
	UndoGrace time.Duration
	// RecentLimit caps the recent-posts list.
	RecentLimit int
}

// Composer runs the publishing workflow for a single journalist session.
type Composer struct {
	store    *news.Store
	media    *mediastore.Client
	auth     authsvc.Service
	sched    *sched.Scheduler
	notifier notifications.Service
	logger   *slog.Logger

	maxUploadBytes int64
	undoGrace      time.Duration
	recentLimit    int

	mu      sync.Mutex
	draft   Draft
	state   State
	pending *pendingDelete
}

// pendingDelete is the recently-deleted buffer. It holds at most one post;
// deleting another post while one is buffered force-fires the earlier purge.
type pendingDelete struct {
	post  *news.Post
	token sched.Token
}

// New builds a composer workflow.
func New(opts Options) (*Composer, error) {
	if opts.Store == nil {
		return nil, errors.New("composer requires a news store")
	}
	if opts.Auth == nil {
		opts.Auth = authsvc.Anonymous()
	}
	if opts.Sched == nil {
		opts.Sched = sched.New()
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(nil)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 30 << 20
	}
	if opts.UndoGrace <= 0 {
		opts.UndoGrace = 5 * time.Second
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 5
	}
	return &Composer{
		store:          opts.Store,
		media:          opts.Media,
		auth:           opts.Auth,
		sched:          opts.Sched,
		notifier:       opts.Notifier,
		logger:         opts.Logger,
		maxUploadBytes: opts.MaxUploadBytes,
		undoGrace:      opts.UndoGrace,
		recentLimit:    opts.RecentLimit,
		state:          StateEditing,
	}, nil
}

// State returns the current workflow state.
func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Draft returns a copy of the draft under composition.
func (c *Composer) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.clone()
}

// Update mutates the draft. Mutation is only allowed while the workflow is
// editing or recovering from a failed publish.
func (c *Composer) Update(fn func(*Draft)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditing && c.state != StateFailed {
		return services.Wrap(services.ErrValidation, "composer", "update", fmt.Sprintf("draft is not editable in state %s", c.state), nil)
	}
	fn(&c.draft)
	return nil
}

// RemoveMedia detaches the attachment at index and best-effort deletes the
// uploaded object behind it.
func (c *Composer) RemoveMedia(ctx context.Context, index int) error {
	c.mu.Lock()
	if c.state != StateEditing && c.state != StateFailed {
		c.mu.Unlock()
		return services.Wrap(services.ErrValidation, "composer", "remove_media", fmt.Sprintf("draft is not editable in state %s", c.state), nil)
	}
	if index < 0 || index >= len(c.draft.Media) {
		c.mu.Unlock()
		return services.Wrap(services.ErrValidation, "composer", "remove_media", fmt.Sprintf("no attachment at index %d", index), nil)
	}
	removed := c.draft.Media[index]
	c.draft.Media = append(c.draft.Media[:index], c.draft.Media[index+1:]...)
	c.mu.Unlock()

	if c.media != nil {
		if err := c.media.Delete(ctx, removed.FileURL); err != nil {
			c.logger.Warn("orphaned media object left behind", logging.Error(err), logging.String("file_url", removed.FileURL))
		}
	}
	return nil
}

// Publish validates the draft, derives its slug, and persists it as a
// published or scheduled post. The draft clears on success and is preserved
// on failure.
func (c *Composer) Publish(ctx context.Context) (*news.Post, error) {
	c.mu.Lock()
	if !CanTransition(c.state, StatePublishing) {
		state := c.state
		c.mu.Unlock()
		return nil, services.Wrap(services.ErrValidation, "composer", "publish", fmt.Sprintf("cannot publish from state %s", state), nil)
	}
	c.state = StatePublishing
	draft := c.draft.clone()
	c.mu.Unlock()

	post, err := c.publishDraft(ctx, draft)
	c.mu.Lock()
	if err != nil {
		c.state = StateFailed
		c.mu.Unlock()
		return nil, err
	}
	c.state = StatePublished
	c.draft = Draft{}
	c.state = StateEditing
	c.mu.Unlock()

	if post.Status == news.StatusScheduled && post.ScheduledAt != nil {
		if nerr := c.notifier.NotifyPostScheduled(ctx, post.Title, *post.ScheduledAt); nerr != nil {
			c.logger.Warn("scheduled notification failed", logging.Error(nerr))
		}
	} else {
		if nerr := c.notifier.NotifyPostPublished(ctx, post.Title, post.Slug); nerr != nil {
			c.logger.Warn("publish notification failed", logging.Error(nerr))
		}
	}
	return post, nil
}

func (c *Composer) publishDraft(ctx context.Context, draft Draft) (*news.Post, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	user, err := c.auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	status := news.StatusPublished
	if draft.ScheduledAt != nil {
		status = news.StatusScheduled
	}

	post := &news.Post{
		Title:       draft.Title,
		Slug:        textutil.PostSlug(draft.Title, now),
		Content:     draft.Content,
		Summary:     draft.Summary,
		Category:    draft.Category,
		Location:    draft.Location,
		MediaURLs:   draft.mediaURLs(),
		Status:      status,
		CreatedAt:   now,
		ScheduledAt: draft.ScheduledAt,
		Breaking:    draft.Breaking,
		UserID:      user.ID,
	}

	created, err := c.store.CreatePost(ctx, post)
	if err != nil {
		if nerr := c.notifier.NotifyPublishFailed(ctx, draft.Title, err); nerr != nil {
			c.logger.Warn("failure notification failed", logging.Error(nerr))
		}
		return nil, services.Wrap(services.ErrPersistence, "composer", "publish", "persist post failed", err)
	}
	c.logger.Info("post published",
		logging.String(logging.FieldSlug, created.Slug),
		logging.Int64(logging.FieldPostID, created.ID),
		logging.String(logging.FieldUserID, user.ID),
		logging.String("status", string(created.Status)))
	return created, nil
}

func validateDraft(draft Draft) error {
	if isBlank(draft.Title) {
		return services.Wrap(services.ErrValidation, "composer", "publish", "title is required", nil)
	}
	if isBlank(draft.Content) {
		return services.Wrap(services.ErrValidation, "composer", "publish", "content is required", nil)
	}
	if !news.ValidCategory(draft.Category) {
		return services.Wrap(services.ErrValidation, "composer", "publish", fmt.Sprintf("unknown category %q", draft.Category), nil)
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// RecentPosts lists the signed-in journalist's latest posts, newest first.
func (c *Composer) RecentPosts(ctx context.Context) ([]*news.Post, error) {
	user, err := c.auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := c.store.ListRecentByUser(ctx, user.ID, c.recentLimit)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "composer", "recent_posts", "list failed", err)
	}
	return posts, nil
}

// Delete soft-deletes a post owned by the signed-in journalist and starts the
// undo grace timer. When the timer fires the post is purged permanently,
// media objects first. At most one delete is undoable at a time; a second
// delete force-fires the earlier purge.
func (c *Composer) Delete(ctx context.Context, postID int64) error {
	user, err := c.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}

	post, err := c.store.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, news.ErrPostNotFound) {
			return services.Wrap(services.ErrNotFound, "composer", "delete", "post not found", err)
		}
		return services.Wrap(services.ErrPersistence, "composer", "delete", "post lookup failed", err)
	}
	if post.UserID != user.ID {
		return services.Wrap(services.ErrAuthorization, "composer", "delete", "post belongs to another user", nil)
	}
	if post.Deleted {
		return services.Wrap(services.ErrValidation, "composer", "delete", "post is already deleted", nil)
	}

	if err := c.store.MarkDeleted(ctx, postID); err != nil {
		return services.Wrap(services.ErrPersistence, "composer", "delete", "soft delete failed", err)
	}

	c.mu.Lock()
	prior := c.pending
	c.pending = nil
	c.mu.Unlock()

	if prior != nil && c.sched.Cancel(prior.token) {
		c.purge(prior.post)
	}

	token := c.sched.Schedule(postID, c.undoGrace, func() {
		c.mu.Lock()
		if c.pending != nil && c.pending.post.ID == postID {
			c.pending = nil
		}
		c.mu.Unlock()
		c.purge(post)
	})

	c.mu.Lock()
	c.pending = &pendingDelete{post: post, token: token}
	c.mu.Unlock()

	c.logger.Info("post soft-deleted",
		logging.Int64(logging.FieldPostID, postID),
		logging.Duration("undo_window", c.undoGrace))
	return nil
}

// Undo restores the most recently deleted post if its grace timer has not
// fired yet. It returns the restored post identifier.
func (c *Composer) Undo(ctx context.Context) (int64, error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if pending == nil {
		return 0, services.Wrap(services.ErrNotFound, "composer", "undo", "nothing to undo", nil)
	}
	if !c.sched.Cancel(pending.token) {
		return 0, services.Wrap(services.ErrNotFound, "composer", "undo", "undo window already closed", nil)
	}

	if err := c.store.Restore(ctx, pending.post.ID); err != nil {
		return 0, services.Wrap(services.ErrPersistence, "composer", "undo", "restore failed", err)
	}
	c.logger.Info("post restored", logging.Int64(logging.FieldPostID, pending.post.ID))
	return pending.post.ID, nil
}

// PendingDelete reports the post currently sitting in the undo buffer.
func (c *Composer) PendingDelete() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return 0, false
	}
	return c.pending.post.ID, true
}

// purge permanently removes a post: media objects first, then comments,
// reactions, and the post row. Media failures are logged and skipped so a
// dead object store cannot wedge the database purge.
func (c *Composer) purge(post *news.Post) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if c.media != nil {
		for _, fileURL := range post.MediaURLs {
			if err := c.media.Delete(ctx, fileURL); err != nil {
				c.logger.Warn("media cleanup failed during purge",
					logging.Error(err), logging.String("file_url", fileURL))
			}
		}
	}

	if err := c.store.PurgePost(ctx, post.ID); err != nil {
		c.logger.Error("purge failed", logging.Error(err), logging.Int64(logging.FieldPostID, post.ID))
		if nerr := c.notifier.NotifyError(ctx, err, "post purge"); nerr != nil {
			c.logger.Warn("error notification failed", logging.Error(nerr))
		}
		return
	}
	c.logger.Info("post purged", logging.Int64(logging.FieldPostID, post.ID))
	if nerr := c.notifier.NotifyPostPurged(ctx, post.Title); nerr != nil {
		c.logger.Warn("purge notification failed", logging.Error(nerr))
	}
}
