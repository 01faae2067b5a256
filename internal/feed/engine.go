package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"drn/internal/bookmarks"
	"drn/internal/logging"
	"drn/internal/news"
	"drn/internal/realtime"
	"drn/internal/services"
	"drn/internal/services/authsvc"
)

// Engine drives the reader-facing feed. It owns the fetched pages, the active
// sort mode and filters, the per-post reaction aggregates, and the breaking
// subset of the most recent page.
type Engine struct {
	store     *news.Store
	bookmarks *bookmarks.Store
	auth      authsvc.Service
	hub       *realtime.Hub
	pageSize  int
	logger    *slog.Logger

	mu        sync.Mutex
	mode      news.SortMode
	filters   Filters
	posts     []*news.Post
	breaking  []*news.Post
	counts    map[int64]news.ReactionCounts
	comments  map[int64]int
	exhausted bool
}

// Options wires the engine's collaborators.
type Options struct {
	Store     *news.Store
	Bookmarks *bookmarks.Store
	Auth      authsvc.Service
	Hub       *realtime.Hub
	PageSize  int
	Logger    *slog.Logger
}

// NewEngine builds a feed engine. Store is required; the other collaborators
// degrade gracefully when absent.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("feed engine requires a news store")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 6
	}
	if opts.Auth == nil {
		opts.Auth = authsvc.Anonymous()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Engine{
		store:     opts.Store,
		bookmarks: opts.Bookmarks,
		auth:      opts.Auth,
		hub:       opts.Hub,
		pageSize:  opts.PageSize,
		logger:    opts.Logger,
		mode:      news.SortRecency,
		counts:    make(map[int64]news.ReactionCounts),
		comments:  make(map[int64]int),
	}, nil
}

// LoadPage fetches the next page, or the first page again when reset is true.
// A reset replaces the fetched list and recomputes the breaking subset from
// the fresh page alone; a follow-up load appends, skipping posts already
// present. On any fetch error the previously fetched list stays intact.
func (e *Engine) LoadPage(ctx context.Context, reset bool) error {
	e.mu.Lock()
	mode := e.mode
	offset := len(e.posts)
	if reset {
		offset = 0
	}
	e.mu.Unlock()

	page, err := e.store.ListPage(ctx, mode, e.pageSize, offset)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "feed", "load_page", "page fetch failed", err)
	}

	counts, commentTotals, err := fetchAggregates(ctx, e.store, page)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "feed", "load_page", "aggregate fetch failed", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if reset {
		e.posts = page
		e.breaking = news.ListBreaking(page)
		e.counts = make(map[int64]news.ReactionCounts)
		e.comments = make(map[int64]int)
	} else {
		seen := make(map[int64]struct{}, len(e.posts))
		for _, post := range e.posts {
			seen[post.ID] = struct{}{}
		}
		for _, post := range page {
			if _, dup := seen[post.ID]; dup {
				continue
			}
			e.posts = append(e.posts, post)
		}
	}
	for id, c := range counts {
		e.counts[id] = c
	}
	for id, n := range commentTotals {
		e.comments[id] = n
	}
	e.exhausted = len(page) < e.pageSize
	return nil
}

// TriggerNextPage appends the next page to the fetched list.
func (e *Engine) TriggerNextPage(ctx context.Context) error {
	return e.LoadPage(ctx, false)
}

// SetSort switches the ordering and reloads from the first page.
func (e *Engine) SetSort(ctx context.Context, mode news.SortMode) error {
	if !news.ValidSortMode(mode) {
		return services.Wrap(services.ErrValidation, "feed", "set_sort", fmt.Sprintf("invalid sort mode %q", mode), nil)
	}
	e.mu.Lock()
	e.mode = mode
	e.mu.Unlock()
	return e.LoadPage(ctx, true)
}

// ApplyFilters replaces the active filter set. Filtering is a view over the
// already fetched pages; it does not touch the store.
func (e *Engine) ApplyFilters(filters Filters) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filters = filters
}

// Visible returns the fetched posts that pass the active filters, preserving
// fetch order.
func (e *Engine) Visible() []*news.Post {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.filters.Empty() {
		return append([]*news.Post(nil), e.posts...)
	}
	var visible []*news.Post
	for _, post := range e.posts {
		if e.filters.Matches(post) {
			visible = append(visible, post)
		}
	}
	return visible
}

// Breaking returns the breaking subset computed from the last reset page.
func (e *Engine) Breaking() []*news.Post {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*news.Post(nil), e.breaking...)
}

// Counts returns the reaction aggregate for a post; zero counts if unknown.
func (e *Engine) Counts(postID int64) news.ReactionCounts {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[postID]
}

// CommentCount returns the number of comments known for a post.
func (e *Engine) CommentCount(postID int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.comments[postID]
}

// Exhausted reports whether the last fetched page came back short, meaning
// there are no further pages.
func (e *Engine) Exhausted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exhausted
}

// ToggleBookmark flips the durable bookmark state for a post and reports the
// new membership.
func (e *Engine) ToggleBookmark(postID int64) (bool, error) {
	if e.bookmarks == nil {
		return false, services.Wrap(services.ErrValidation, "feed", "bookmark", "bookmarks are not configured", nil)
	}
	return e.bookmarks.Toggle(postID)
}

// Bookmarked reports whether a post is bookmarked.
func (e *Engine) Bookmarked(postID int64) bool {
	if e.bookmarks == nil {
		return false
	}
	return e.bookmarks.Contains(postID)
}

// React records a reaction for the signed-in user and refreshes the post's
// aggregate. Anonymous readers are rejected.
func (e *Engine) React(ctx context.Context, postID int64, kind news.ReactionType) (news.ReactionCounts, error) {
	user, err := e.auth.CurrentUser(ctx)
	if err != nil {
		return news.ReactionCounts{}, err
	}
	if !news.ValidReactionType(kind) {
		return news.ReactionCounts{}, services.Wrap(services.ErrValidation, "feed", "react", fmt.Sprintf("invalid reaction type %q", kind), nil)
	}

	if err := e.store.UpsertReaction(ctx, &news.Reaction{PostID: postID, UserID: user.ID, Type: kind}); err != nil {
		return news.ReactionCounts{}, services.Wrap(services.ErrPersistence, "feed", "react", "record reaction failed", err)
	}

	reactions, err := e.store.ListReactions(ctx, []int64{postID})
	if err != nil {
		return news.ReactionCounts{}, services.Wrap(services.ErrPersistence, "feed", "react", "refresh counts failed", err)
	}
	counts := news.CountReactions(reactions)[postID]

	e.mu.Lock()
	e.counts[postID] = counts
	e.mu.Unlock()
	return counts, nil
}

// SubmitComment appends a comment to the post behind slug. Authorship is
// optional and defaults to Anonymous; the new comment fans out to realtime
// subscribers of the slug.
func (e *Engine) SubmitComment(ctx context.Context, slug, content, authorName string) (*news.Comment, error) {
	post, err := e.store.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, news.ErrPostNotFound) {
			return nil, services.Wrap(services.ErrNotFound, "feed", "comment", "post not found", err)
		}
		return nil, services.Wrap(services.ErrPersistence, "feed", "comment", "post lookup failed", err)
	}

	comment, err := e.store.InsertComment(ctx, &news.Comment{
		PostID:     post.ID,
		Slug:       slug,
		Content:    content,
		AuthorName: authorName,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "feed", "comment", "comment rejected", err)
	}

	e.mu.Lock()
	e.comments[post.ID]++
	e.mu.Unlock()

	if e.hub != nil {
		e.hub.Publish(realtime.Event{Slug: slug, Comment: *comment})
	}
	e.logger.Debug("comment accepted", logging.String(logging.FieldSlug, slug), logging.Int64(logging.FieldPostID, post.ID))
	return comment, nil
}
