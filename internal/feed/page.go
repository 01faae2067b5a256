package feed

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"drn/internal/news"
)

// Page is one fetched feed page with its aggregates. The HTTP surface serves
// pages statelessly through FetchPage; the Engine accumulates them.
type Page struct {
	Posts    []*news.Post
	Breaking []*news.Post
	Counts   map[int64]news.ReactionCounts
	Comments map[int64]int
	HasMore  bool
}

// FetchPage loads one page of visible posts together with reaction and
// comment aggregates. Aggregate queries run concurrently; any failure aborts
// the whole fetch.
func FetchPage(ctx context.Context, store *news.Store, mode news.SortMode, pageSize, offset int) (*Page, error) {
	posts, err := store.ListPage(ctx, mode, pageSize, offset)
	if err != nil {
		return nil, err
	}
	counts, comments, err := fetchAggregates(ctx, store, posts)
	if err != nil {
		return nil, err
	}
	return &Page{
		Posts:    posts,
		Breaking: news.ListBreaking(posts),
		Counts:   counts,
		Comments: comments,
		HasMore:  len(posts) == pageSize,
	}, nil
}

// fetchAggregates loads reaction rows and comment totals for a page.
func fetchAggregates(ctx context.Context, store *news.Store, posts []*news.Post) (map[int64]news.ReactionCounts, map[int64]int, error) {
	if len(posts) == 0 {
		return nil, nil, nil
	}

	ids := make([]int64, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}

	var (
		counts   map[int64]news.ReactionCounts
		comments = make(map[int64]int, len(posts))
		mu       sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reactions, err := store.ListReactions(gctx, ids)
		if err != nil {
			return err
		}
		counts = news.CountReactions(reactions)
		return nil
	})
	for _, post := range posts {
		post := post
		g.Go(func() error {
			n, err := store.CountComments(gctx, post.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			comments[post.ID] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return counts, comments, nil
}
