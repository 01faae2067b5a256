// Package daemon runs the long-lived drnd process: it owns the news store,
// the feed and composer workflows, the realtime hub, and the undo scheduler,
// and exposes them over an HTTP API plus the unix-socket IPC. A file lock
// enforces single-instance execution.
//
// When no external object store is configured the daemon self-hosts the
// upload flow: the intent endpoint signs URLs against a local media directory
// served back under /media/.
package daemon
