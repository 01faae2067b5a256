// Command drn is the newsroom CLI. Reader commands (feed, show, comment,
// react, bookmark) talk to the daemon's HTTP API; operator commands (publish,
// recent, delete, undo, status, stop) go through the HTTP API or the
// unix-socket IPC, depending on what they touch.
package main
