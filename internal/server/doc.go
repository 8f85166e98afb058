// Package server provides the HTTP layer: route registration, playback
// command and read handlers, the provider OAuth hand-off, and the WebSocket
// upgrade path feeding the broadcast hub.
package server
