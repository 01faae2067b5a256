// Package mediastore handles the two-phase media upload flow. Phase one asks
// the intent endpoint for a short-lived signed upload URL plus the durable
// public URL of the object; phase two PUTs the raw bytes to the signed URL.
// The package provides both the client used by the composer and the intent
// HTTP handler served by the daemon.
package mediastore
