package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "player:state", Key("player", "state"))
	assert.Equal(t, "search:track:daft punk", Key("search", "track", "daft punk"))
	assert.NotEqual(t, Key("a", "bc"), Key("ab", "c"))
}

func TestResolveDeduplicatesConcurrentCallers(t *testing.T) {
	c := New(time.Minute, clockwork.NewRealClock())

	var calls atomic.Int64
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "resolved", nil
	}

	const n = 10
	results := make([]any, n)
	errs := make([]error, n)

	var started, done sync.WaitGroup
	started.Add(n)
	done.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer done.Done()
			started.Done()
			results[i], errs[i] = c.Resolve(context.Background(), "player:state", fetch)
		}()
	}

	started.Wait()
	// Give every goroutine a chance to reach the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int64(1), calls.Load(), "concurrent callers must coalesce into one fetch")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "resolved", results[i])
	}
}

func TestResolveServesFreshValueWithoutFetching(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New(2*time.Second, clock)

	var calls int
	fetch := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	v, err := c.Resolve(context.Background(), "player:state", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// Just inside the TTL window: served from cache.
	clock.Advance(2*time.Second - time.Millisecond)
	v, err = c.Resolve(context.Background(), "player:state", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)

	// Past the TTL window: entry is stale and replaced transparently.
	clock.Advance(2 * time.Millisecond)
	v, err = c.Resolve(context.Background(), "player:state", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)
}

func TestResolveDoesNotCacheFailures(t *testing.T) {
	c := New(time.Minute, clockwork.NewRealClock())

	var calls int
	boom := errors.New("upstream exploded")
	fetch := func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return "recovered", nil
	}

	_, err := c.Resolve(context.Background(), "player:state", fetch)
	require.ErrorIs(t, err, boom)

	// The failure must not short-circuit the next caller.
	v, err := c.Resolve(context.Background(), "player:state", fetch)
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, 2, calls)
}

func TestResolvePropagatesSameErrorToAllWaiters(t *testing.T) {
	c := New(time.Minute, clockwork.NewRealClock())

	boom := errors.New("upstream exploded")
	release := make(chan struct{})
	var calls atomic.Int64
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return nil, boom
	}

	const n = 5
	errs := make([]error, n)
	var done sync.WaitGroup
	done.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer done.Done()
			_, errs[i] = c.Resolve(context.Background(), "player:state", fetch)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for i := 0; i < n; i++ {
		assert.ErrorIs(t, errs[i], boom)
	}
}

func TestResolveKeysAreIndependent(t *testing.T) {
	c := New(time.Minute, clockwork.NewRealClock())

	var calls atomic.Int64
	fetchFor := func(result string) FetchFunc {
		return func(ctx context.Context) (any, error) {
			calls.Add(1)
			return result, nil
		}
	}

	a, err := c.Resolve(context.Background(), Key("player", "state"), fetchFor("state"))
	require.NoError(t, err)
	b, err := c.Resolve(context.Background(), Key("search", "track", "q"), fetchFor("results"))
	require.NoError(t, err)

	assert.Equal(t, "state", a)
	assert.Equal(t, "results", b)
	assert.Equal(t, int64(2), calls.Load())
}

func TestTypedResolve(t *testing.T) {
	c := New(time.Minute, clockwork.NewRealClock())

	type snapshot struct{ Name string }

	v, err := Resolve(context.Background(), c, "player:state", func(ctx context.Context) (*snapshot, error) {
		return &snapshot{Name: "song"}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "song", v.Name)

	// Second resolve hits the cache and still comes back typed.
	v, err = Resolve(context.Background(), c, "player:state", func(ctx context.Context) (*snapshot, error) {
		t.Fatal("fetcher must not run on a fresh entry")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "song", v.Name)
}

func TestResolveScenarioTimeline(t *testing.T) {
	// TTL = 2000ms: a value resolved at t=0 is cached at t=1000ms and
	// refetched at t=2500ms.
	clock := clockwork.NewFakeClock()
	c := New(2*time.Second, clock)

	var calls int
	fetch := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	v, err := c.Resolve(context.Background(), "info:current", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(time.Second)
	v, err = c.Resolve(context.Background(), "info:current", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v, "caller at t=1000ms sees the cached value")
	assert.Equal(t, 1, calls)

	clock.Advance(1500 * time.Millisecond)
	v, err = c.Resolve(context.Background(), "info:current", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "caller at t=2500ms triggers a new call")
	assert.Equal(t, 2, calls)
}
