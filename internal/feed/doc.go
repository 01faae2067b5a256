// Package feed implements the reader-facing feed engine: incremental
// pagination over the news store, client-side filtering of the fetched pages,
// reaction aggregation, the breaking-news subset, and durable bookmarks.
//
// The engine holds the fetched pages in memory. Filters and the breaking
// subset operate on what has been fetched, never on the full dataset; loading
// more pages widens what they can see.
package feed
