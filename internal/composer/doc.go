// Package composer implements the journalist-facing publishing workflow: a
// draft that moves through an explicit state machine, two-phase media uploads
// with per-file validation, publish with slug derivation, the recent-posts
// list, and soft delete with a timed undo window.
//
// A draft lives in memory until publish succeeds; only published or scheduled
// posts reach the store. Publish failure preserves the draft so nothing the
// journalist typed is lost.
package composer
