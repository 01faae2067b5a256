// Package sched provides cancellable one-shot timers keyed by post
// identifier, used for the composer's soft-delete grace period.
//
// Each scheduled task fires exactly once or not at all: Cancel before the
// delay elapses guarantees the callback never runs and leaves no residual
// side effects. Tokens are opaque and single-use.
package sched
