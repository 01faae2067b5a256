// Package api defines the transport-friendly representations shared by the
// daemon's HTTP surface and the unix-socket IPC. Converters map store records
// into DTOs; nothing here touches the database.
package api
