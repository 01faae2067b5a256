// Package realtime fans out comment events to live subscribers. The hub is an
// in-process pub/sub keyed by post slug; the websocket handler bridges it to
// connected readers so new comments appear without polling.
package realtime
