// Package spotify adapts the Spotify Web API to the domain.Player interface.
//
// All protocol and token details live in the underlying client library; the
// rest of the process treats the adapter as an opaque source of asynchronous
// operations. Read paths run behind a circuit breaker and a short retry
// policy so a provider outage degrades to fast failures instead of pile-ups.
package spotify
