package spotify

import (
	"strings"

	spotifyapi "github.com/zmb3/spotify/v2"

	"github.com/jthawme/spotify-ambient-display/internal/domain"
)

// snapshotFromPlayerState shapes the provider's playback state into the
// viewer-facing snapshot. A nil item means nothing is playing.
func snapshotFromPlayerState(state *spotifyapi.PlayerState) *domain.Snapshot {
	snapshot := &domain.Snapshot{
		Playing:    state.Playing,
		ProgressMs: int(state.Progress),
		Device:     state.Device.Name,
		Shuffle:    state.ShuffleState,
	}
	if state.Item != nil {
		track := trackFromFull(state.Item)
		snapshot.Track = &track
	}
	return snapshot
}

func trackFromFull(full *spotifyapi.FullTrack) domain.Track {
	names := make([]string, 0, len(full.Artists))
	for _, artist := range full.Artists {
		names = append(names, artist.Name)
	}

	track := domain.Track{
		ID:       string(full.ID),
		URI:      string(full.URI),
		Name:     full.Name,
		Artists:  strings.Join(names, ", "),
		Album:    full.Album.Name,
		Duration: int(full.Duration),
	}
	if len(full.Album.Images) > 0 {
		track.ArtURL = full.Album.Images[0].URL
	}
	return track
}

func deviceFromPlayerDevice(device *spotifyapi.PlayerDevice) domain.Device {
	return domain.Device{
		ID:     string(device.ID),
		Name:   device.Name,
		Type:   device.Type,
		Active: device.Active,
		Volume: int(device.Volume),
	}
}
