package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jthawme/spotify-ambient-display/internal/bus"
	"github.com/jthawme/spotify-ambient-display/internal/cache"
	"github.com/jthawme/spotify-ambient-display/internal/domain"
	"github.com/jthawme/spotify-ambient-display/internal/hub"
	"github.com/jthawme/spotify-ambient-display/internal/spotify"
)

// stateKey is the single logical key for "current playback snapshot". The
// poll loop and user-triggered info requests share it, so a racing poll and
// HTTP read coalesce into one upstream call.
var stateKey = cache.Key("player", "state")

// Sink receives broadcasts destined for every connected viewer.
type Sink interface {
	Broadcast(messageType string, payload any)
}

// Service is the application layer. It orchestrates all use cases.
type Service struct {
	player   domain.Player
	cache    *cache.Cache
	bus      *bus.Bus
	sessions *spotify.Holder
	sink     Sink
}

// NewService creates the application layer service.
func NewService(player domain.Player, requestCache *cache.Cache, b *bus.Bus, sessions *spotify.Holder, sink Sink) *Service {
	return &Service{
		player:   player,
		cache:    requestCache,
		bus:      b,
		sessions: sessions,
		sink:     sink,
	}
}

// CurrentState returns the current playback snapshot, served from the
// request cache when fresh.
func (s *Service) CurrentState(ctx context.Context) (*domain.Snapshot, error) {
	return cache.Resolve(ctx, s.cache, stateKey, s.player.CurrentState)
}

// Search returns tracks matching query, served from the request cache when
// the same query was resolved recently.
func (s *Service) Search(ctx context.Context, query string) (*domain.SearchResults, error) {
	key := cache.Key("search", "track", query)
	return cache.Resolve(ctx, s.cache, key, func(ctx context.Context) (*domain.SearchResults, error) {
		return s.player.SearchTracks(ctx, query)
	})
}

// Devices lists the provider account's playback targets, served from the
// request cache when fresh.
func (s *Service) Devices(ctx context.Context) ([]domain.Device, error) {
	key := cache.Key("player", "devices")
	return cache.Resolve(ctx, s.cache, key, s.player.Devices)
}

// Play resumes playback.
func (s *Service) Play(ctx context.Context) error {
	if err := s.player.Play(ctx); err != nil {
		return err
	}
	s.bus.Notify(domain.NoticeInfo, "Playback resumed")
	return nil
}

// Pause pauses playback.
func (s *Service) Pause(ctx context.Context) error {
	if err := s.player.Pause(ctx); err != nil {
		return err
	}
	s.bus.Notify(domain.NoticeInfo, "Playback paused")
	return nil
}

// Skip advances to the next track.
func (s *Service) Skip(ctx context.Context) error {
	if err := s.player.Next(ctx); err != nil {
		return err
	}
	s.bus.Emit(domain.EventTrackSkipped, nil)
	s.bus.Notify(domain.NoticeInfo, "Track skipped")
	return nil
}

// Queue appends a track to the playback queue.
func (s *Service) Queue(ctx context.Context, uri string) (*domain.Track, error) {
	track, err := s.player.QueueTrack(ctx, uri)
	if err != nil {
		return nil, err
	}
	s.bus.Emit(domain.EventTrackQueued, track)
	s.bus.Notify(domain.NoticeSuccess, fmt.Sprintf("Added %s to the queue", track.Name))
	return track, nil
}

// Authenticated installs a freshly authenticated provider session and
// announces it on the bus.
func (s *Service) Authenticated(session *spotify.Session) {
	s.sessions.Set(session)
	s.bus.Emit(domain.EventAuthenticated, map[string]string{"user": session.UserName})
	s.bus.Notify(domain.NoticeSuccess, fmt.Sprintf("Connected as %s", session.UserName))
}

// Run consumes the lifecycle event stream: every event is logged, and an
// authentication hand-over triggers a full-state push to all viewers.
// Blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	events, cancel := s.bus.Events.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			slog.Info("Lifecycle event", "name", event.Name)
			if event.Name == domain.EventAuthenticated {
				s.pushFullState(ctx)
			}
		}
	}
}

func (s *Service) pushFullState(ctx context.Context) {
	snapshot, err := s.CurrentState(ctx)
	if err != nil {
		slog.Warn("Full-state push failed", "error", err)
		return
	}
	s.sink.Broadcast(hub.TypeState, snapshot)
}
