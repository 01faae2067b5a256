// Package notifications delivers newsroom push alerts over ntfy. Publishes,
// deletions, and daemon errors each map to one notification; an unconfigured
// topic yields a noop service so callers never branch on configuration.
package notifications
