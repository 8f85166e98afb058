package hub

import (
	"context"

	"github.com/jthawme/spotify-ambient-display/internal/bus"
)

// Relay consumes both bus streams and fans every message out to all
// connected viewers. It blocks until ctx is cancelled; run it in its own
// goroutine as the bus's terminal consumer.
func (h *Hub) Relay(ctx context.Context, b *bus.Bus) {
	notices, cancelNotices := b.Notices.Subscribe()
	defer cancelNotices()
	events, cancelEvents := b.Events.Subscribe()
	defer cancelEvents()

	for {
		select {
		case n := <-notices:
			h.Broadcast(TypeNotice, n)
		case e := <-events:
			h.Broadcast(TypeEvent, e)
		case <-ctx.Done():
			return
		}
	}
}
