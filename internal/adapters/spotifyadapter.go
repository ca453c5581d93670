package adapters

import (
	"context"
	"discovernow/internal/config"
	"discovernow/internal/playlist"
	"fmt"
	"net/http"
	"strings"

	"github.com/zmb3/spotify/v2"
)

const (
	// maxTracksPerRequest is Spotify's limit for adding items to a playlist
	maxTracksPerRequest = 100
	playlistURLPrefix   = "https://open.spotify.com/playlist/"
	trackURIPrefix      = "spotify:track:"
)

// SpotifyAdapter adapts the Spotify Web API to the source, catalog, sink and
// similarity interfaces
type SpotifyAdapter struct {
	BaseAdapter // Embed the BaseAdapter
	client      *spotify.Client
	market      string
}

// NewSpotifyAdapter creates a new SpotifyAdapter. httpClient must attach the
// user's token, see auth.Provider.Client.
func NewSpotifyAdapter(httpClient *http.Client, market string, resilience config.ResilienceConfig, opts ...spotify.ClientOption) *SpotifyAdapter {
	if market == "" {
		market = "US"
	}
	return &SpotifyAdapter{
		BaseAdapter: NewBaseAdapter("spotify", resilience),
		client:      spotify.New(httpClient, opts...),
		market:      market,
	}
}

// Library returns the user's saved tracks, newest first
func (a *SpotifyAdapter) Library() SourceCatalog {
	return &spotifyLibrary{a: a}
}

// Playlist returns the items of playlist id
func (a *SpotifyAdapter) Playlist(id string) SourceCatalog {
	return &spotifyPlaylist{a: a, id: spotify.ID(id)}
}

// SearchArtists searches for artists by name
func (a *SpotifyAdapter) SearchArtists(ctx context.Context, name string, limit int) ([]playlist.ArtistRecord, error) {
	if limit <= 0 || limit > 50 {
		limit = 50 // Spotify API maximum is 50 per request
	}

	res, err := call(ctx, &a.BaseAdapter, "search artists", func(ctx context.Context) (*spotify.SearchResult, error) {
		return a.client.Search(ctx, name, spotify.SearchTypeArtist, spotify.Limit(limit))
	})
	if err != nil {
		return nil, fmt.Errorf("error searching artists: %w", err)
	}
	if res == nil || res.Artists == nil {
		return nil, nil
	}

	records := make([]playlist.ArtistRecord, 0, len(res.Artists.Artists))
	for _, artist := range res.Artists.Artists {
		records = append(records, playlist.ArtistRecord{ID: string(artist.ID), Name: artist.Name})
	}
	return records, nil
}

// TopTracks returns an artist's most popular tracks in the configured market
func (a *SpotifyAdapter) TopTracks(ctx context.Context, artistID string) ([]playlist.CatalogTrack, error) {
	tracks, err := call(ctx, &a.BaseAdapter, "top tracks", func(ctx context.Context) ([]spotify.FullTrack, error) {
		return a.client.GetArtistsTopTracks(ctx, spotify.ID(artistID), a.market)
	})
	if err != nil {
		return nil, fmt.Errorf("error getting top tracks: %w", err)
	}

	out := make([]playlist.CatalogTrack, 0, len(tracks))
	for i := range tracks {
		out = append(out, catalogTrack(&tracks[i]))
	}
	return out, nil
}

// SimilarArtists returns Spotify's related artists for the best search hit
// of artist
func (a *SpotifyAdapter) SimilarArtists(ctx context.Context, artist string) ([]string, error) {
	records, err := a.SearchArtists(ctx, artist, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrArtistNotFound, artist)
	}

	related, err := call(ctx, &a.BaseAdapter, "related artists", func(ctx context.Context) ([]spotify.FullArtist, error) {
		return a.client.GetRelatedArtists(ctx, spotify.ID(records[0].ID))
	})
	if err != nil {
		return nil, fmt.Errorf("error getting related artists: %w", err)
	}

	names := make([]string, 0, len(related))
	for _, r := range related {
		names = append(names, r.Name)
	}
	return names, nil
}

// CurrentUserID returns the ID of the authenticated user
func (a *SpotifyAdapter) CurrentUserID(ctx context.Context) (string, error) {
	user, err := call(ctx, &a.BaseAdapter, "current user", func(ctx context.Context) (*spotify.PrivateUser, error) {
		return a.client.CurrentUser(ctx)
	})
	if err != nil {
		return "", fmt.Errorf("error getting current user: %w", err)
	}
	return user.ID, nil
}

// CreatePlaylist creates a new, non collaborative playlist owned by ownerID
func (a *SpotifyAdapter) CreatePlaylist(ctx context.Context, ownerID, title, description string, public bool) (playlist.Playlist, error) {
	p, err := call(ctx, &a.BaseAdapter, "create playlist", func(ctx context.Context) (*spotify.FullPlaylist, error) {
		return a.client.CreatePlaylistForUser(ctx, ownerID, title, description, public, false)
	})
	if err != nil {
		return playlist.Playlist{}, fmt.Errorf("error creating playlist: %w", err)
	}

	url := p.ExternalURLs["spotify"]
	if url == "" {
		url = playlistURLPrefix + string(p.ID)
	}
	return playlist.Playlist{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		URL:         url,
	}, nil
}

// AddTracks appends tracks, given as spotify:track URIs, in batches of 100
func (a *SpotifyAdapter) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	ids := make([]spotify.ID, 0, len(uris))
	for _, uri := range uris {
		id, err := trackIDFromURI(uri)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	for start := 0; start < len(ids); start += maxTracksPerRequest {
		batch := ids[start:min(start+maxTracksPerRequest, len(ids))]
		_, err := call(ctx, &a.BaseAdapter, "add tracks", func(ctx context.Context) (string, error) {
			return a.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...)
		})
		if err != nil {
			return fmt.Errorf("error adding tracks %d-%d to playlist: %w", start, start+len(batch), err)
		}
	}
	return nil
}

func trackIDFromURI(uri string) (spotify.ID, error) {
	id, ok := strings.CutPrefix(uri, trackURIPrefix)
	if !ok || id == "" {
		return "", fmt.Errorf("not a spotify track uri: %q", uri)
	}
	return spotify.ID(id), nil
}

func seedTrack(t *spotify.FullTrack) *playlist.SeedTrack {
	if t == nil {
		return nil
	}
	artists := make([]string, 0, len(t.Artists))
	for _, artist := range t.Artists {
		if artist.Name != "" {
			artists = append(artists, artist.Name)
		}
	}
	return &playlist.SeedTrack{Name: t.Name, Artists: artists}
}

func catalogTrack(t *spotify.FullTrack) playlist.CatalogTrack {
	artists := make([]string, 0, len(t.Artists))
	for _, artist := range t.Artists {
		artists = append(artists, artist.Name)
	}
	return playlist.CatalogTrack{
		Name:        t.Name,
		URI:         string(t.URI),
		PreviewURL:  t.PreviewURL,
		ExternalURL: t.ExternalURLs["spotify"],
		Artists:     artists,
	}
}

type spotifyLibrary struct {
	a *SpotifyAdapter
}

func (l *spotifyLibrary) savedTracks(ctx context.Context, offset, limit int) (*spotify.SavedTrackPage, error) {
	page, err := call(ctx, &l.a.BaseAdapter, "saved tracks", func(ctx context.Context) (*spotify.SavedTrackPage, error) {
		return l.a.client.CurrentUsersTracks(ctx, spotify.Limit(limit), spotify.Offset(offset))
	})
	if err != nil {
		return nil, fmt.Errorf("error getting saved tracks: %w", err)
	}
	return page, nil
}

func (l *spotifyLibrary) TotalCount(ctx context.Context) (int, error) {
	page, err := l.savedTracks(ctx, 0, 1)
	if err != nil {
		return 0, err
	}
	return int(page.Total), nil
}

func (l *spotifyLibrary) ItemAt(ctx context.Context, offset int) (*playlist.SeedTrack, error) {
	page, err := l.savedTracks(ctx, offset, 1)
	if err != nil {
		return nil, err
	}
	if len(page.Tracks) == 0 {
		return nil, nil
	}
	return seedTrack(&page.Tracks[0].FullTrack), nil
}

func (l *spotifyLibrary) Page(ctx context.Context, offset, limit int) (playlist.Page, error) {
	page, err := l.savedTracks(ctx, offset, limit)
	if err != nil {
		return playlist.Page{}, err
	}
	out := playlist.Page{Total: int(page.Total), Items: make([]playlist.SeedTrack, 0, len(page.Tracks))}
	for i := range page.Tracks {
		out.Items = append(out.Items, *seedTrack(&page.Tracks[i].FullTrack))
	}
	return out, nil
}

type spotifyPlaylist struct {
	a  *SpotifyAdapter
	id spotify.ID
}

func (p *spotifyPlaylist) items(ctx context.Context, offset, limit int) (*spotify.PlaylistItemPage, error) {
	page, err := call(ctx, &p.a.BaseAdapter, "playlist items", func(ctx context.Context) (*spotify.PlaylistItemPage, error) {
		return p.a.client.GetPlaylistItems(ctx, p.id, spotify.Limit(limit), spotify.Offset(offset))
	})
	if err != nil {
		return nil, fmt.Errorf("error getting playlist items: %w", err)
	}
	return page, nil
}

func (p *spotifyPlaylist) TotalCount(ctx context.Context) (int, error) {
	page, err := p.items(ctx, 0, 1)
	if err != nil {
		return 0, err
	}
	return int(page.Total), nil
}

// ItemAt returns nil for episodes and removed tracks
func (p *spotifyPlaylist) ItemAt(ctx context.Context, offset int) (*playlist.SeedTrack, error) {
	page, err := p.items(ctx, offset, 1)
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, nil
	}
	return seedTrack(page.Items[0].Track.Track), nil
}

func (p *spotifyPlaylist) Page(ctx context.Context, offset, limit int) (playlist.Page, error) {
	page, err := p.items(ctx, offset, limit)
	if err != nil {
		return playlist.Page{}, err
	}
	out := playlist.Page{Total: int(page.Total), Items: make([]playlist.SeedTrack, 0, len(page.Items))}
	for _, item := range page.Items {
		if t := seedTrack(item.Track.Track); t != nil {
			out.Items = append(out.Items, *t)
		}
	}
	return out, nil
}
