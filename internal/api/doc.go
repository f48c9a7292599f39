// Package api serves a small read-only HTTP view of the running client: the
// task controller's state and the recent task events. It is meant for local
// debugging and is disabled unless client.status_addr is configured.
package api
