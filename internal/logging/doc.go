// Package logging builds the slog loggers used across the drn daemon and CLI.
//
// It provides console and JSON handlers, standardized attribute constructors,
// and context helpers that fold user/post/request identifiers into structured
// output. Obtain loggers through New or NewFromConfig so formats and levels
// stay consistent between binaries.
package logging
