package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/jthawme/spotify-ambient-display/internal/metrics"
)

// keySeparator joins the semantic parts of a logical request key.
// It must not occur inside any individual part.
const keySeparator = ":"

// Key builds a cache key from ordered semantic parts (entity kind,
// operation, identifier), so that distinct logical requests never collide
// and identical logical requests always produce the identical string.
func Key(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// FetchFunc produces the value for a key. It is only invoked on a cache
// miss, and at most once per key across all concurrent callers.
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe map from logical key to cached value.
// Entries expire lazily after a fixed TTL; there is no background sweep.
// The key space is bounded by the small set of request shapes the
// application issues, so entries are superseded in place, never deleted.
type Cache struct {
	ttl   time.Duration
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[string]entry

	group singleflight.Group
}

// New creates a cache whose entries live for ttl after a successful fetch.
func New(ttl time.Duration, clock clockwork.Clock) *Cache {
	return &Cache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry),
	}
}

// Resolve returns the cached value for key, or invokes fetch to produce it.
//
// If a non-expired value exists it is returned without invoking fetch. If a
// fetch for key is already in flight, the caller attaches to it and observes
// the same eventual value or error. Otherwise fetch runs once; on success
// the value is stored with a fresh expiry, on failure nothing is stored and
// the next caller retries from scratch.
func (c *Cache) Resolve(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	if value, ok := c.lookup(key); ok {
		metrics.CacheHitsTotal.Inc()
		return value, nil
	}
	metrics.CacheMissesTotal.Inc()

	value, err, shared := c.group.Do(key, func() (any, error) {
		// A racing flight may have stored a fresh value between our lookup
		// and this flight starting.
		if value, ok := c.lookup(key); ok {
			return value, nil
		}

		start := c.clock.Now()
		value, err := fetch(ctx)
		metrics.CacheFetchDuration.Observe(c.clock.Since(start).Seconds())
		if err != nil {
			return nil, err
		}

		c.store(key, value)
		return value, nil
	})
	if shared {
		metrics.CacheSharedFlightsTotal.Inc()
	}
	return value, err
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok || c.clock.Now().After(ent.expiresAt) {
		return nil, false
	}
	return ent.value, true
}

func (c *Cache) store(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

// Resolve fetches through c with a typed fetcher, sparing callers the
// any-assertion at every call site.
func Resolve[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	value, err := c.Resolve(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, _ := value.(T)
	return typed, nil
}
