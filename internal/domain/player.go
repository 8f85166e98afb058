package domain

import "context"

// --- Model types ---

// Track is the minimal description of a playable item shown to viewers.
type Track struct {
	ID       string `json:"id"`
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Artists  string `json:"artists"`
	Album    string `json:"album"`
	ArtURL   string `json:"artUrl,omitempty"`
	Duration int    `json:"durationMs"`
}

// Snapshot is the "what is playing now" state replicated to every viewer.
type Snapshot struct {
	Playing    bool   `json:"playing"`
	Track      *Track `json:"track,omitempty"`
	ProgressMs int    `json:"progressMs"`
	Device     string `json:"device,omitempty"`
	Shuffle    bool   `json:"shuffle"`
}

// SearchResults holds the outcome of a track search.
type SearchResults struct {
	Query  string  `json:"query"`
	Tracks []Track `json:"tracks"`
}

// Device is a playback target known to the provider account.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active bool   `json:"active"`
	Volume int    `json:"volumePercent"`
}

// --- Interfaces ---

// Player is the upstream playback provider as seen by this process.
// Implementations own protocol and auth details; callers treat every
// method as an opaque asynchronous operation that may fail.
type Player interface {
	// State queries

	CurrentState(ctx context.Context) (*Snapshot, error)
	SearchTracks(ctx context.Context, query string) (*SearchResults, error)
	Devices(ctx context.Context) ([]Device, error)

	// Commands

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	QueueTrack(ctx context.Context, uri string) (*Track, error)
}

// StateSource produces the current playback snapshot for the poll loop.
type StateSource interface {
	CurrentState(ctx context.Context) (*Snapshot, error)
}

// Audience reports how many real-time clients are currently connected.
type Audience interface {
	ClientCount() int
}
