package adapters

import (
	"context"
	"discovernow/internal/playlist"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// ErrArtistNotFound is returned by a SimilarityService that does not know an artist
var ErrArtistNotFound = errors.New("artist not found")

// AuthProvider hands out a usable access token, refreshing it when needed
type AuthProvider interface {
	ValidToken(ctx context.Context) (*oauth2.Token, error)
}

// SourceCatalog is a sampled collection: the saved-tracks library or a playlist
type SourceCatalog interface {
	TotalCount(ctx context.Context) (int, error)
	// ItemAt returns nil when the offset holds nothing usable
	ItemAt(ctx context.Context, offset int) (*playlist.SeedTrack, error)
	Page(ctx context.Context, offset, limit int) (playlist.Page, error)
}

// SimilarityService returns artists similar to a given one, most similar first
type SimilarityService interface {
	SimilarArtists(ctx context.Context, artist string) ([]string, error)
}

// TargetCatalog resolves artist names to playable tracks
type TargetCatalog interface {
	SearchArtists(ctx context.Context, name string, limit int) ([]playlist.ArtistRecord, error)
	TopTracks(ctx context.Context, artistID string) ([]playlist.CatalogTrack, error)
}

// PlaylistSink persists the generated playlist
type PlaylistSink interface {
	CurrentUserID(ctx context.Context) (string, error)
	CreatePlaylist(ctx context.Context, ownerID, title, description string, public bool) (playlist.Playlist, error)
	AddTracks(ctx context.Context, playlistID string, uris []string) error
}

// PlatformType names a similarity provider
type PlatformType string

const (
	SpotifyPlatform PlatformType = "spotify"
	LastFMPlatform  PlatformType = "lastfm"
)

// NewSimilarityService picks the similarity provider by name. The Last.fm
// adapter is only required when platform is lastfm.
func NewSimilarityService(platform string, lastfm *LastFMAdapter, spotify *SpotifyAdapter) (SimilarityService, error) {
	switch PlatformType(platform) {
	case LastFMPlatform:
		if lastfm == nil {
			return nil, fmt.Errorf("lastfm similarity selected but not configured")
		}
		return lastfm, nil
	case SpotifyPlatform:
		if spotify == nil {
			return nil, fmt.Errorf("spotify similarity selected but not configured")
		}
		return spotify, nil
	default:
		return nil, fmt.Errorf("unsupported similarity provider: %s", platform)
	}
}
