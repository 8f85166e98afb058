package spotify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	spotifyapi "github.com/zmb3/spotify/v2"

	"github.com/jthawme/spotify-ambient-display/internal/domain"
	"github.com/jthawme/spotify-ambient-display/internal/metrics"
	"github.com/jthawme/spotify-ambient-display/internal/retry"
)

const (
	breakerFailureThreshold = 5
	breakerOpenDuration     = 30 * time.Second
	searchLimit             = 10
	trackURIPrefix          = "spotify:track:"
)

var readPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   200 * time.Millisecond,
	RateLimitBackoff: 2 * time.Second,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Debug("Retrying provider read", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

// Player implements domain.Player over the current provider session.
type Player struct {
	sessions *Holder
	breaker  *gobreaker.CircuitBreaker
}

// NewPlayer creates a player reading its session from sessions.
func NewPlayer(sessions *Holder) *Player {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "spotify",
		MaxRequests: 1,
		Timeout:     breakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Provider circuit breaker state changed", "from", from.String(), "to", to.String())
			metrics.ProviderBreakerState.Set(float64(to))
		},
	})
	return &Player{sessions: sessions, breaker: breaker}
}

func (p *Player) client() (*spotifyapi.Client, error) {
	session := p.sessions.Current()
	if session == nil {
		return nil, domain.ErrNoSession
	}
	return session.Client, nil
}

// classify decides how a provider error should be retried.
func classify(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Stop
	}
	var apiErr spotifyapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusTooManyRequests:
			return retry.After
		case apiErr.Status >= 400 && apiErr.Status < 500:
			return retry.Stop
		}
	}
	return retry.Retry
}

// read runs op behind the circuit breaker and the read retry policy.
func read[T any](ctx context.Context, p *Player, operation string, op func() (T, error)) (T, error) {
	result, err := retry.Do(ctx, readPolicy, classify, func() (T, error) {
		value, err := p.breaker.Execute(func() (any, error) {
			return op()
		})
		if err != nil {
			var zero T
			return zero, err
		}
		typed, _ := value.(T)
		return typed, nil
	})
	p.observe(operation, err)
	return result, err
}

func (p *Player) observe(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ProviderRequestsTotal.WithLabelValues(operation, status).Inc()
}

// CurrentState fetches the full playback state and shapes it into the
// snapshot replicated to viewers.
func (p *Player) CurrentState(ctx context.Context) (*domain.Snapshot, error) {
	client, err := p.client()
	if err != nil {
		return nil, err
	}

	state, err := read(ctx, p, "player_state", func() (*spotifyapi.PlayerState, error) {
		return client.PlayerState(ctx)
	})
	if err != nil {
		return nil, err
	}
	return snapshotFromPlayerState(state), nil
}

// SearchTracks looks up tracks matching query.
func (p *Player) SearchTracks(ctx context.Context, query string) (*domain.SearchResults, error) {
	client, err := p.client()
	if err != nil {
		return nil, err
	}

	result, err := read(ctx, p, "search", func() (*spotifyapi.SearchResult, error) {
		return client.Search(ctx, query, spotifyapi.SearchTypeTrack, spotifyapi.Limit(searchLimit))
	})
	if err != nil {
		return nil, err
	}

	results := &domain.SearchResults{Query: query}
	if result.Tracks != nil {
		for i := range result.Tracks.Tracks {
			results.Tracks = append(results.Tracks, trackFromFull(&result.Tracks.Tracks[i]))
		}
	}
	return results, nil
}

// Devices lists the playback targets known to the account.
func (p *Player) Devices(ctx context.Context) ([]domain.Device, error) {
	client, err := p.client()
	if err != nil {
		return nil, err
	}

	devices, err := read(ctx, p, "devices", func() ([]spotifyapi.PlayerDevice, error) {
		return client.PlayerDevices(ctx)
	})
	if err != nil {
		return nil, err
	}

	result := make([]domain.Device, 0, len(devices))
	for i := range devices {
		result = append(result, deviceFromPlayerDevice(&devices[i]))
	}
	return result, nil
}

// Play resumes playback on the active device.
func (p *Player) Play(ctx context.Context) error {
	client, err := p.client()
	if err != nil {
		return err
	}
	err = client.Play(ctx)
	p.observe("play", err)
	return err
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context) error {
	client, err := p.client()
	if err != nil {
		return err
	}
	err = client.Pause(ctx)
	p.observe("pause", err)
	return err
}

// Next skips to the next track.
func (p *Player) Next(ctx context.Context) error {
	client, err := p.client()
	if err != nil {
		return err
	}
	err = client.Next(ctx)
	p.observe("next", err)
	return err
}

// QueueTrack appends a track to the playback queue and returns its
// description for the queued notice. uri may be a full track URI or a bare
// track ID.
func (p *Player) QueueTrack(ctx context.Context, uri string) (*domain.Track, error) {
	client, err := p.client()
	if err != nil {
		return nil, err
	}

	id := spotifyapi.ID(strings.TrimPrefix(uri, trackURIPrefix))
	full, err := client.GetTrack(ctx, id)
	if err != nil {
		p.observe("queue", err)
		if isNotFound(err) {
			return nil, domain.ErrTrackNotFound
		}
		return nil, err
	}

	if err := client.QueueSong(ctx, id); err != nil {
		p.observe("queue", err)
		return nil, err
	}
	p.observe("queue", nil)

	track := trackFromFull(full)
	return &track, nil
}

func isNotFound(err error) bool {
	var apiErr spotifyapi.Error
	return errors.As(err, &apiErr) && (apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusBadRequest)
}
