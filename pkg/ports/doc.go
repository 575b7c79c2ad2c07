// Package ports declares the driven-side interfaces the engine consumes:
// document storage, task editing, queries, HTTP, notifications and the
// pending-response stash. Adapters live under pkg/adapters.
package ports
