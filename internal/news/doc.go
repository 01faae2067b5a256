// Package news owns the relational data model of the newsroom: posts,
// comments, and reactions, persisted in SQLite.
//
// The Store validates records at the boundary (status lifecycle, category
// enumeration, required fields) so malformed rows are rejected on write and
// surfaced on scan rather than trusted at use sites. Post deletion is
// two-phased: a soft-delete flag hides the post from every listing while the
// undo grace period runs, and PurgePost performs the permanent removal,
// deleting dependent comments before the post row so orphaned comments never
// outlive their post.
package news
