package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jthawme/spotify-ambient-display/internal/domain"
	"github.com/jthawme/spotify-ambient-display/internal/hub"
)

const testInterval = 5 * time.Second

type stubSession struct {
	mu          sync.Mutex
	established bool
}

func (s *stubSession) Established() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.established
}

func (s *stubSession) set(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.established = v
}

type stubAudience struct {
	mu    sync.Mutex
	count int
}

func (a *stubAudience) ClientCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

func (a *stubAudience) set(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.count = n
}

type stubStates struct {
	mu      sync.Mutex
	calls   int
	errs    []error
	release chan struct{}
}

func (s *stubStates) CurrentState(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.Lock()
	s.calls++
	var err error
	if len(s.errs) > 0 {
		err = s.errs[0]
		s.errs = s.errs[1:]
	}
	release := s.release
	s.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	return &domain.Snapshot{Playing: true}, nil
}

func (s *stubStates) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *stubSink) Broadcast(messageType string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, messageType)
}

func (s *stubSink) broadcastCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type pollerFixture struct {
	clock    *clockwork.FakeClock
	session  *stubSession
	audience *stubAudience
	states   *stubStates
	sink     *stubSink
}

func startPoller(t *testing.T) *pollerFixture {
	t.Helper()

	f := &pollerFixture{
		clock:    clockwork.NewFakeClock(),
		session:  &stubSession{established: true},
		audience: &stubAudience{count: 1},
		states:   &stubStates{},
		sink:     &stubSink{},
	}

	p := New(testInterval, f.clock, f.session, f.audience, f.states, f.sink)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go p.Run(ctx)

	return f
}

// advanceTick fires the timer and waits for the tick body to finish, which
// is observable as the timer being re-armed.
func (f *pollerFixture) advanceTick(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(testInterval)
	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	require.NoError(t, f.clock.BlockUntilContext(ctx2, 1))
}

func TestPollFetchesAndBroadcastsSnapshot(t *testing.T) {
	f := startPoller(t)

	f.advanceTick(t)

	assert.Equal(t, 1, f.states.callCount())
	require.Equal(t, 1, f.sink.broadcastCount())
	assert.Equal(t, hub.TypeState, f.sink.messages[0])
}

func TestPollSkipsWithoutSession(t *testing.T) {
	f := startPoller(t)
	f.session.set(false)

	for i := 0; i < 3; i++ {
		f.advanceTick(t)
	}
	assert.Equal(t, 0, f.states.callCount())
	assert.Equal(t, 0, f.sink.broadcastCount())

	// Session appears: the next tick polls.
	f.session.set(true)
	f.advanceTick(t)
	assert.Equal(t, 1, f.states.callCount())
}

func TestPollSkipsWithoutAudience(t *testing.T) {
	f := startPoller(t)
	f.audience.set(0)

	for i := 0; i < 3; i++ {
		f.advanceTick(t)
	}
	assert.Equal(t, 0, f.states.callCount(), "no viewers means no upstream fetch")

	f.audience.set(2)
	f.advanceTick(t)
	assert.Equal(t, 1, f.states.callCount())
}

func TestPollSurvivesFetchFailure(t *testing.T) {
	f := startPoller(t)
	f.states.mu.Lock()
	f.states.errs = []error{errors.New("upstream exploded")}
	f.states.mu.Unlock()

	f.advanceTick(t)
	assert.Equal(t, 1, f.states.callCount())
	assert.Equal(t, 0, f.sink.broadcastCount(), "a failed fetch is not broadcast")

	f.advanceTick(t)
	assert.Equal(t, 2, f.states.callCount(), "the loop keeps running after a failure")
	assert.Equal(t, 1, f.sink.broadcastCount())
}

func TestTicksDoNotOverlap(t *testing.T) {
	f := startPoller(t)
	release := make(chan struct{})
	f.states.mu.Lock()
	f.states.release = release
	f.states.mu.Unlock()

	// Fire the first tick; its fetch blocks.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(testInterval)

	// Time passes well beyond several intervals while the tick is still
	// executing; no second tick may begin.
	f.clock.Advance(3 * testInterval)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, f.states.callCount(), "a long tick must not be overlapped by the next one")

	f.states.mu.Lock()
	f.states.release = nil
	f.states.mu.Unlock()
	close(release)

	// The next interval is measured from the end of the previous tick.
	f.advanceTick(t)
	assert.Equal(t, 2, f.states.callCount())
}
