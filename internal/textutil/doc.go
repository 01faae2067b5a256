// Package textutil provides text processing utilities for slugs and
// storage-key sanitization.
//
// The primary use cases are:
//   - Deriving URL-safe post slugs from headlines
//   - Sanitizing uploaded file names for safe object-storage keys
//
// Slug derivation lowercases the input, folds accented characters to their
// ASCII base form, collapses runs of non-alphanumeric characters into single
// hyphens, and trims leading/trailing hyphens. A creation-timestamp suffix
// keeps slugs unique across posts that share a headline.
package textutil
