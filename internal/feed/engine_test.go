package feed_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"drn/internal/bookmarks"
	"drn/internal/feed"
	"drn/internal/news"
	"drn/internal/realtime"
	"drn/internal/services"
	"drn/internal/services/authsvc"
	"drn/internal/testsupport"
)

func newEngine(t *testing.T, opts feed.Options) *feed.Engine {
	t.Helper()
	engine, err := feed.NewEngine(opts)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func seedSequence(t *testing.T, store *news.Store, n int) []*news.Post {
	t.Helper()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	posts := make([]*news.Post, 0, n)
	for i := 0; i < n; i++ {
		post := testsupport.SeedPost(t, store, fmt.Sprintf("Story %02d", i),
			testsupport.WithCreatedAt(base.Add(time.Duration(i)*time.Minute)))
		posts = append(posts, post)
	}
	return posts
}

func TestLoadPageReturnsPageSizePosts(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPageSize(6))
	store := testsupport.MustOpenStore(t, cfg)
	seedSequence(t, store, 10)

	engine := newEngine(t, feed.Options{Store: store, PageSize: cfg.Feed.PageSize})
	if err := engine.LoadPage(context.Background(), true); err != nil {
		t.Fatalf("LoadPage: %v", err)
	}

	visible := engine.Visible()
	if len(visible) != 6 {
		t.Fatalf("expected 6 posts on first page, got %d", len(visible))
	}
	// Newest first under recency sort.
	if visible[0].Title != "Story 09" {
		t.Fatalf("expected newest story first, got %q", visible[0].Title)
	}
	if engine.Exhausted() {
		t.Fatal("ten posts should leave a second page")
	}
}

func TestTriggerNextPageAppendsWithoutDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPageSize(6))
	store := testsupport.MustOpenStore(t, cfg)
	seedSequence(t, store, 10)

	engine := newEngine(t, feed.Options{Store: store, PageSize: cfg.Feed.PageSize})
	if err := engine.LoadPage(context.Background(), true); err != nil {
		t.Fatalf("LoadPage: %v", err)
	}
	if err := engine.TriggerNextPage(context.Background()); err != nil {
		t.Fatalf("TriggerNextPage: %v", err)
	}

	visible := engine.Visible()
	if len(visible) != 10 {
		t.Fatalf("expected all 10 posts after second page, got %d", len(visible))
	}
	seen := make(map[int64]struct{})
	for _, post := range visible {
		if _, dup := seen[post.ID]; dup {
			t.Fatalf("post %d appears twice", post.ID)
		}
		seen[post.ID] = struct{}{}
	}
	if !engine.Exhausted() {
		t.Fatal("short second page should mark the feed exhausted")
	}
}

func TestResetReplacesInsteadOfAppending(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPageSize(6))
	store := testsupport.MustOpenStore(t, cfg)
	seedSequence(t, store, 10)

	engine := newEngine(t, feed.Options{Store: store, PageSize: cfg.Feed.PageSize})
	if err := engine.LoadPage(context.Background(), true); err != nil {
		t.Fatalf("LoadPage: %v", err)
	}
	if err := engine.TriggerNextPage(context.Background()); err != nil {
		t.Fatalf("TriggerNextPage: %v", err)
	}
	if err := engine.LoadPage(context.Background(), true); err != nil {
		t.Fatalf("reset LoadPage: %v", err)
	}

	if got := len(engine.Visible()); got != 6 {
		t.Fatalf("reset should shrink back to one page, got %d posts", got)
	}
}

func TestSearchFiltersTitleAndSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPageSize(10))
	store := testsupport.MustOpenStore(t, cfg)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	testsupport.SeedPost(t, store, "Water crisis deepens in the valley",
		testsupport.WithCreatedAt(base))
	testsupport.SeedPost(t, store, "Council votes on budget",
		testsupport.WithSummary("New levy funds water treatment upgrades"),
		testsupport.WithCreatedAt(base.Add(time.Minute)))
	testsupport.SeedPost(t, store, "Stadium opens downtown",
		testsupport.WithSummary("Ribbon cut at new arena"),
		testsupport.WithCreatedAt(base.Add(2*time.Minute)))

	engine := newEngine(t, feed.Options{Store: store, PageSize: cfg.Feed.PageSize})
	if err := engine.LoadPage(context.Background(), true); err != nil {
		t.Fatalf("LoadPage: %v", err)
	}

	engine.ApplyFilters(feed.Filters{Query: "water"})
	visible := engine.Visible()
	if len(visible) != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "water", len(visible))
	}
	for _, post := range visible {
		if post.Title == "Stadium opens downtown" {
			t.Fatal("non-matching post leaked through the search filter")
		}
	}

	engine.ApplyFilters(feed.Filters{})
	if got := len(engine.Visible()); got != 3 {
		t.Fatalf("clearing filters should restore all fetched posts, got %d", got)
	}
}

func TestFiltersCombineWithAnd(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPageSize(10))
	store := testsupport.MustOpenStore(t, cfg)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	testsupport.SeedPost(t, store, "Heatwave grips the coast",
		testsupport.WithCategory("weather"), testsupport.WithLocation("Chennai"),
		testsupport.WithCreatedAt(base))
	testsupport.SeedPost(t, store, "Monsoon arrives early",
		testsupport.WithCategory("weather"), testsupport.WithLocation("Mumbai"),
		testsupport.WithCreatedAt(base.Add(time.Minute)))
	testsupport.SeedPost(t, store, "Startup raises round",
		testsupport.WithCategory("technology"), testsupport.WithLocation("Chennai"),
		testsupport.WithCreatedAt(base.Add(2*time.Minute)))

	engine := newEngine(t, feed.Options{Store: store, PageSize: cfg.Feed.PageSize})
	if err := engine.LoadPage(context.Background(), true); err != nil {
		t.Fatalf("LoadPage: %v", err)
	}

	engine.ApplyFilters(feed.Filters{Category: "Weather", Location: "chennai"})
	visible := engine.Visible()
	if len(visible) != 1 || visible[0].Title != "Heatwave grips the coast" {
		t.Fatalf("AND filter mismatch: %+v", titles(visible))
	}
}

func TestBreakingSubsetComesFromResetPageOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPageSize(3))
	store := testsupport.MustOpenStore(t, cfg)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	// Older breaking post lands outside the first page under recency sort.
	testsupport.SeedPost(t, store, "Old breaking story",
		testsupport.WithBreaking(), testsupport.WithCreatedAt(base))
	for i := 0; i < 2; i++ {
		testsupport.SeedPost(t, store, fmt.Sprintf("Filler %d", i),
			testsupport.WithCreatedAt(base.Add(time.Duration(i+1)*time.Minute)))
	}
	fresh := testsupport.SeedPost(t, store, "Dam breach downstream",
		testsupport.WithBreaking(), testsupport.WithCreatedAt(base.Add(time.Hour)))

	engine := newEngine(t, feed.Options{Store: store, PageSize: cfg.Feed.PageSize})
	if err := engine.LoadPage(context.Background(), true); err != nil {
		t.Fatalf("LoadPage: %v", err)
	}

	breaking := engine.Breaking()
	if len(breaking) != 1 || breaking[0].ID != fresh.ID {
		t.Fatalf("breaking subset should hold only the fresh page's flagged post: %+v", titles(breaking))
	}
	for _, post := range breaking {
		if !post.Breaking {
			t.Fatal("breaking subset contains an unflagged post")
		}
	}

	// Loading more pages must not grow the subset.
	if err := engine.TriggerNextPage(context.Background()); err != nil {
		t.Fatalf("TriggerNextPage: %v", err)
	}
	if got := len(engine.Breaking()); got != 1 {
		t.Fatalf("breaking subset grew on append: %d", got)
	}
}

func TestTrendingSortOrdersByViews(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPageSize(10))
	store := testsupport.MustOpenStore(t, cfg)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	testsupport.SeedPost(t, store, "Quiet story",
		testsupport.WithViews(3), testsupport.WithCreatedAt(base.Add(2*time.Minute)))
	testsupport.SeedPost(t, store, "Viral story",
		testsupport.WithViews(900), testsupport.WithCreatedAt(base))
	testsupport.SeedPost(t, store, "Middling story",
		testsupport.WithViews(40), testsupport.WithCreatedAt(base.Add(time.Minute)))

	engine := newEngine(t, feed.Options{Store: store, PageSize: cfg.Feed.PageSize})
	if err := engine.SetSort(context.Background(), news.SortTrending); err != nil {
		t.Fatalf("SetSort: %v", err)
	}

	visible := engine.Visible()
	if len(visible) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(visible))
	}
	if visible[0].Title != "Viral story" || visible[2].Title != "Quiet story" {
		t.Fatalf("unexpected trending order: %v", titles(visible))
	}
}

func TestReactRequiresAuthentication(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	post := testsupport.SeedPost(t, store, "Signed reactions only")

	engine := newEngine(t, feed.Options{Store: store, Auth: authsvc.Anonymous()})
	if _, err := engine.React(context.Background(), post.ID, news.ReactionLike); !errors.Is(err, services.ErrAuthorization) {
		t.Fatalf("anonymous reaction should fail authorization, got %v", err)
	}
}

func TestReactUpsertsAndRefreshesCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	post := testsupport.SeedPost(t, store, "Reactable story")

	engine := newEngine(t, feed.Options{
		Store: store,
		Auth:  authsvc.Static(authsvc.User{ID: "reader-1", Email: "r@example.com"}),
	})

	counts, err := engine.React(context.Background(), post.ID, news.ReactionLike)
	if err != nil {
		t.Fatalf("React: %v", err)
	}
	if counts.Like != 1 {
		t.Fatalf("expected one like, got %+v", counts)
	}

	// Re-reacting with the same type must not inflate the count.
	counts, err = engine.React(context.Background(), post.ID, news.ReactionLike)
	if err != nil {
		t.Fatalf("React again: %v", err)
	}
	if counts.Like != 1 {
		t.Fatalf("duplicate reaction inflated counts: %+v", counts)
	}
	if got := engine.Counts(post.ID); got.Like != 1 {
		t.Fatalf("cached counts mismatch: %+v", got)
	}
}

func TestSubmitCommentPublishesToHub(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	post := testsupport.SeedPost(t, store, "Comment magnet")

	hub := realtime.NewHub()
	defer hub.Close()
	events, cancel := hub.Subscribe(post.Slug)
	defer cancel()

	engine := newEngine(t, feed.Options{Store: store, Hub: hub})
	comment, err := engine.SubmitComment(context.Background(), post.Slug, "  first!  ", "")
	if err != nil {
		t.Fatalf("SubmitComment: %v", err)
	}
	if comment.AuthorName != news.AnonymousAuthor {
		t.Fatalf("expected anonymous default, got %q", comment.AuthorName)
	}
	if comment.Content != "first!" {
		t.Fatalf("expected trimmed content, got %q", comment.Content)
	}

	select {
	case event := <-events:
		if event.Comment.ID != comment.ID {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("comment never reached the hub")
	}

	if got := engine.CommentCount(post.ID); got != 1 {
		t.Fatalf("expected comment count 1, got %d", got)
	}
}

func TestSubmitCommentUnknownSlug(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	engine := newEngine(t, feed.Options{Store: store})
	if _, err := engine.SubmitComment(context.Background(), "no-such-post-1", "hello", ""); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestToggleBookmarkPersists(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	post := testsupport.SeedPost(t, store, "Bookmark me")

	marks, err := bookmarks.Open(cfg.Paths.BookmarksPath)
	if err != nil {
		t.Fatalf("bookmarks.Open: %v", err)
	}

	engine := newEngine(t, feed.Options{Store: store, Bookmarks: marks})
	on, err := engine.ToggleBookmark(post.ID)
	if err != nil {
		t.Fatalf("ToggleBookmark: %v", err)
	}
	if !on || !engine.Bookmarked(post.ID) {
		t.Fatal("expected post bookmarked after toggle")
	}

	reopened, err := bookmarks.Open(cfg.Paths.BookmarksPath)
	if err != nil {
		t.Fatalf("reopen bookmarks: %v", err)
	}
	if !reopened.Contains(post.ID) {
		t.Fatal("bookmark did not survive reopen")
	}
}

func titles(posts []*news.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}
