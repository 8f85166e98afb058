package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jthawme/spotify-ambient-display/internal/domain"
	"github.com/jthawme/spotify-ambient-display/internal/hub"
	"github.com/jthawme/spotify-ambient-display/internal/metrics"
)

// Tick outcomes for metrics and logs.
const (
	outcomePolled     = "polled"
	outcomeNoSession  = "no_session"
	outcomeNoAudience = "no_audience"
	outcomeError      = "error"
)

// SessionCheck reports whether an authenticated provider session exists.
type SessionCheck interface {
	Established() bool
}

// Sink receives the playback snapshot for fan-out to viewers.
type Sink interface {
	Broadcast(messageType string, payload any)
}

// Poller is the self-rescheduling poll loop. It holds no payload state of
// its own; all snapshot state lives in the request cache behind states.
type Poller struct {
	interval time.Duration
	clock    clockwork.Clock
	session  SessionCheck
	audience domain.Audience
	states   domain.StateSource
	sink     Sink
}

// New creates a poller. states must fetch through the request cache under
// the same fixed key used for user-triggered state reads, so that the poll
// loop and a racing HTTP request coalesce into one upstream call.
func New(interval time.Duration, clock clockwork.Clock, session SessionCheck, audience domain.Audience, states domain.StateSource, sink Sink) *Poller {
	return &Poller{
		interval: interval,
		clock:    clock,
		session:  session,
		audience: audience,
		states:   states,
		sink:     sink,
	}
}

// Run starts the poll loop. It blocks until ctx is cancelled; tick failures
// are logged and never terminate the loop.
func (p *Poller) Run(ctx context.Context) {
	timer := p.clock.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.Chan():
			p.tick(ctx)
			// Re-arm only after the tick body finishes: the interval runs
			// from the end of one execution to the start of the next.
			timer.Reset(p.interval)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	start := p.clock.Now()
	outcome := p.poll(ctx)

	metrics.PollerTicksTotal.WithLabelValues(outcome).Inc()
	metrics.PollerTickDuration.Observe(p.clock.Since(start).Seconds())
}

func (p *Poller) poll(ctx context.Context) string {
	if !p.session.Established() {
		// Nothing to poll yet; not an error.
		slog.Debug("Poll skipped: no provider session")
		return outcomeNoSession
	}

	if p.audience.ClientCount() <= 0 {
		// Nobody is watching; save the upstream quota.
		slog.Debug("Poll skipped: no connected viewers")
		return outcomeNoAudience
	}

	snapshot, err := p.states.CurrentState(ctx)
	if err != nil {
		slog.Warn("Poll fetch failed", "error", err)
		return outcomeError
	}

	p.sink.Broadcast(hub.TypeState, snapshot)
	return outcomePolled
}
