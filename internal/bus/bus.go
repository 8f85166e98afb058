package bus

import (
	"log/slog"
	"sync"

	"github.com/jthawme/spotify-ambient-display/internal/domain"
	"github.com/jthawme/spotify-ambient-display/internal/metrics"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls this far behind starts losing messages.
const subscriberBuffer = 16

// Stream is a single-topic publish/subscribe channel. Messages published
// while a subscriber is registered are delivered to it exactly once, in a
// total order consistent across all subscribers; messages published before
// registration are never seen.
type Stream[T any] struct {
	name string

	mu     sync.Mutex
	nextID int
	subs   map[int]chan T
}

// NewStream creates an empty stream. The name is used for logging and metrics.
func NewStream[T any](name string) *Stream[T] {
	return &Stream[T]{
		name: name,
		subs: make(map[int]chan T),
	}
}

// Subscribe registers a listener for the full stream. The returned cancel
// function unregisters it and closes the channel; it is safe to call more
// than once.
func (s *Stream[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan T, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers msg to every currently registered subscriber. Sends are
// non-blocking: a subscriber with a full buffer misses the message.
func (s *Stream[T]) Publish(msg T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	metrics.BusPublishedTotal.WithLabelValues(s.name).Inc()
	for _, ch := range s.subs {
		select {
		case ch <- msg:
		default:
			metrics.BusDroppedTotal.WithLabelValues(s.name).Inc()
			slog.Warn("Dropping message for slow subscriber", "stream", s.name)
		}
	}
}

// SubscriberCount returns the number of currently registered subscribers.
func (s *Stream[T]) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Bus bundles the two process-wide streams: transient user-facing notices
// and internal lifecycle events.
type Bus struct {
	Notices *Stream[domain.Notice]
	Events  *Stream[domain.Event]
}

// New creates a bus with empty notice and event streams.
func New() *Bus {
	return &Bus{
		Notices: NewStream[domain.Notice]("notices"),
		Events:  NewStream[domain.Event]("events"),
	}
}

// Notify publishes a user-facing notice.
func (b *Bus) Notify(level domain.NoticeLevel, text string) {
	b.Notices.Publish(domain.Notice{Level: level, Text: text})
}

// Emit publishes a lifecycle event.
func (b *Bus) Emit(name domain.EventName, payload any) {
	b.Events.Publish(domain.Event{Name: name, Payload: payload})
}
