// Package services holds shared plumbing for the external collaborators the
// newsroom depends on: the object-storage signer, the auth provider, and the
// push-notification sink.
//
// It defines the error taxonomy used across the feed and composer workflows
// (validation, authorization, upload, persistence) together with Wrap, which
// tags failures with a sentinel marker and component/operation context so
// callers can classify recoverability without parsing messages. None of these
// errors are fatal to the process; every one is recoverable at the level of
// the user action that triggered it.
//
// Context helpers annotate request flows with user and correlation identifiers
// that the logging package folds into structured output.
package services
