package spotify

import (
	"sync/atomic"

	spotifyapi "github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// Session is an authenticated provider session: the API client carrying the
// account's token plus the display name shown to viewers. Token is kept for
// expiry inspection only; the client refreshes it internally.
type Session struct {
	Client   *spotifyapi.Client
	UserName string
	Token    *oauth2.Token
}

// Holder owns the process-wide "current provider session" slot. The slot is
// empty until an authentication flow completes and is replaced wholesale on
// re-authentication; the poll loop and every HTTP handler read it.
type Holder struct {
	current atomic.Pointer[Session]
}

// NewHolder creates an empty session slot.
func NewHolder() *Holder {
	return &Holder{}
}

// Set replaces the current session.
func (h *Holder) Set(s *Session) {
	h.current.Store(s)
}

// Current returns the current session, or nil if none is established.
func (h *Holder) Current() *Session {
	return h.current.Load()
}

// Established reports whether an authenticated session exists.
func (h *Holder) Established() bool {
	return h.current.Load() != nil
}
