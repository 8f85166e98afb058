// Package app provides the application service layer.
//
// Orchestrates use cases: cached state reads, playback commands, search,
// session hand-over after authentication. Sits between HTTP handlers and
// the provider adapter; read paths go through the request cache, command
// paths go straight to the provider and publish onto the bus.
package app
