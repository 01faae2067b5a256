// Package ipc exposes daemon control over JSON-RPC on a Unix domain socket.
// The CLI is the only intended client; the HTTP API serves readers while this
// surface serves operator commands (status, recents, delete, undo).
package ipc
