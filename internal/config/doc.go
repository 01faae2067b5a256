// Package config loads, normalizes, and validates drn configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DRN_AUTH_TOKEN. The Config type centralizes every knob the daemon and CLI
// need: data/log directories, feed paging, composer media limits, the
// soft-delete grace period, and external collaborator endpoints.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
