// Package hub implements the WebSocket broadcast sink using the actor pattern.
//
// All connected viewers belong to one shared room. A single goroutine owns
// the connection registry and processes commands from a channel (no
// mutexes); per-connection write goroutines absorb slow clients, and a
// client that cannot keep up is evicted rather than blocking the fan-out.
package hub
