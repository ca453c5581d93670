package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"
)

// fakeSpotify serves the handful of Web API endpoints the adapter uses
type fakeSpotify struct {
	mu        sync.Mutex
	saved     []string // track names, newest first
	added     [][]string
	created   map[string]any
	queries   []string
	noURL     bool
	throttle  int // answer this many searches with 429
	playlists map[string][]string // playlist id -> item types
}

func (f *fakeSpotify) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit == 0 {
		limit = 20
	}

	switch {
	case path == "/me/tracks":
		var items []map[string]any
		for i := offset; i < min(offset+limit, len(f.saved)); i++ {
			items = append(items, map[string]any{
				"added_at": "2026-10-01T00:00:00Z",
				"track":    fullTrack(f.saved[i], "Artist "+f.saved[i], "Guest"),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(f.saved), "limit": limit, "offset": offset})

	case strings.HasPrefix(path, "/playlists/") && r.Method == http.MethodGet:
		id := strings.Split(strings.TrimPrefix(path, "/playlists/"), "/")[0]
		kinds := f.playlists[id]
		var items []map[string]any
		for i := offset; i < min(offset+limit, len(kinds)); i++ {
			if kinds[i] == "episode" {
				items = append(items, map[string]any{"track": map[string]any{"type": "episode", "id": "ep" + strconv.Itoa(i), "name": "Episode"}})
				continue
			}
			items = append(items, map[string]any{"track": fullTrack(fmt.Sprintf("pl%d", i), "Playlist Artist")})
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(kinds), "limit": limit, "offset": offset})

	case strings.HasPrefix(path, "/playlists/") && r.Method == http.MethodPost:
		var body struct {
			URIs []string `json:"uris"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.added = append(f.added, body.URIs)
		writeJSON(w, http.StatusCreated, map[string]any{"snapshot_id": "snap"})

	case path == "/search":
		f.queries = append(f.queries, q.Get("q"))
		if f.throttle > 0 {
			f.throttle--
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": map[string]any{"status": 429, "message": "slow down"}})
			return
		}
		var artists []map[string]any
		if q.Get("q") != "nobody" {
			artists = append(artists,
				map[string]any{"id": "a1", "name": q.Get("q")},
				map[string]any{"id": "a2", "name": q.Get("q") + " Tribute"},
			)
		}
		writeJSON(w, http.StatusOK, map[string]any{"artists": map[string]any{"items": artists[:min(limit, len(artists))], "total": len(artists)}})

	case strings.HasSuffix(path, "/top-tracks"):
		id := strings.Split(strings.TrimPrefix(path, "/artists/"), "/")[0]
		if q.Get("country") != "SE" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"status": 400, "message": "missing market"}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tracks": []any{fullTrack(id+"-hit", "Top Artist")}})

	case strings.HasSuffix(path, "/related-artists"):
		writeJSON(w, http.StatusOK, map[string]any{"artists": []any{
			map[string]any{"id": "r1", "name": "Related One"},
			map[string]any{"id": "r2", "name": "Related Two"},
		}})

	case path == "/me":
		writeJSON(w, http.StatusOK, map[string]any{"id": "listener", "display_name": "Listener"})

	case path == "/users/listener/playlists":
		_ = json.NewDecoder(r.Body).Decode(&f.created)
		resp := map[string]any{"id": "newpl", "name": f.created["name"], "description": f.created["description"]}
		if !f.noURL {
			resp["external_urls"] = map[string]string{"spotify": "https://open.spotify.com/playlist/newpl?si=1"}
		}
		writeJSON(w, http.StatusCreated, resp)

	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"status": 404, "message": "no route " + path}})
	}
}

func fullTrack(id string, artists ...string) map[string]any {
	var as []map[string]any
	for _, a := range artists {
		as = append(as, map[string]any{"name": a, "id": strings.ReplaceAll(a, " ", "")})
	}
	return map[string]any{
		"type":          "track",
		"id":            id,
		"name":          "Song " + id,
		"uri":           "spotify:track:" + id,
		"preview_url":   "https://p.scdn.co/" + id,
		"external_urls": map[string]string{"spotify": "https://open.spotify.com/track/" + id},
		"artists":       as,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newSpotifyTestAdapter(t *testing.T, f *fakeSpotify) *SpotifyAdapter {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewSpotifyAdapter(srv.Client(), "SE", testResilience(), spotify.WithBaseURL(srv.URL+"/"))
}

func TestSpotifyLibrary(t *testing.T) {
	f := &fakeSpotify{}
	for i := range 120 {
		f.saved = append(f.saved, fmt.Sprintf("t%d", i))
	}
	lib := newSpotifyTestAdapter(t, f).Library()
	ctx := context.Background()

	total, err := lib.TotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120, total)

	item, err := lib.ItemAt(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Song t42", item.Name)
	assert.Equal(t, []string{"Artist t42", "Guest"}, item.Artists)

	item, err = lib.ItemAt(ctx, 500)
	require.NoError(t, err)
	assert.Nil(t, item)

	page, err := lib.Page(ctx, 100, 50)
	require.NoError(t, err)
	assert.Equal(t, 120, page.Total)
	assert.Len(t, page.Items, 20)
	assert.Equal(t, "Song t100", page.Items[0].Name)
}

func TestSpotifyPlaylistSkipsEpisodes(t *testing.T) {
	f := &fakeSpotify{playlists: map[string][]string{"pl": {"track", "episode", "track"}}}
	src := newSpotifyTestAdapter(t, f).Playlist("pl")
	ctx := context.Background()

	total, err := src.TotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	item, err := src.ItemAt(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, item)

	item, err = src.ItemAt(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, []string{"Playlist Artist"}, item.Artists)

	page, err := src.Page(ctx, 0, 50)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestSpotifyCatalog(t *testing.T) {
	f := &fakeSpotify{}
	a := newSpotifyTestAdapter(t, f)
	ctx := context.Background()

	records, err := a.SearchArtists(ctx, "Bonobo", 3)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a1", records[0].ID)
	assert.Equal(t, "Bonobo", records[0].Name)

	records, err = a.SearchArtists(ctx, "nobody", 3)
	require.NoError(t, err)
	assert.Empty(t, records)

	tracks, err := a.TopTracks(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "spotify:track:a1-hit", tracks[0].URI)
	assert.Equal(t, "https://open.spotify.com/track/a1-hit", tracks[0].ExternalURL)
	assert.Equal(t, "https://p.scdn.co/a1-hit", tracks[0].PreviewURL)
	assert.Equal(t, []string{"Top Artist"}, tracks[0].Artists)
}

func TestSpotifySimilarArtists(t *testing.T) {
	a := newSpotifyTestAdapter(t, &fakeSpotify{})

	names, err := a.SimilarArtists(context.Background(), "Bonobo")
	require.NoError(t, err)
	assert.Equal(t, []string{"Related One", "Related Two"}, names)

	_, err = a.SimilarArtists(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrArtistNotFound)
}

func TestSpotifyCreatePlaylistAndAddTracks(t *testing.T) {
	f := &fakeSpotify{}
	a := newSpotifyTestAdapter(t, f)
	ctx := context.Background()

	owner, err := a.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "listener", owner)

	pl, err := a.CreatePlaylist(ctx, owner, "Discover NOW 10/16/2026 9:00:00 AM", "Generated playlist from similar artists", false)
	require.NoError(t, err)
	assert.Equal(t, "newpl", pl.ID)
	assert.Equal(t, "https://open.spotify.com/playlist/newpl?si=1", pl.URL)
	assert.Equal(t, false, f.created["public"])

	uris := make([]string, 150)
	for i := range uris {
		uris[i] = fmt.Sprintf("spotify:track:id%d", i)
	}
	require.NoError(t, a.AddTracks(ctx, pl.ID, uris))
	require.Len(t, f.added, 2)
	assert.Len(t, f.added[0], 100)
	assert.Len(t, f.added[1], 50)
	assert.Equal(t, "spotify:track:id100", f.added[1][0])
}

func TestSpotifyPlaylistURLFallback(t *testing.T) {
	a := newSpotifyTestAdapter(t, &fakeSpotify{noURL: true})

	pl, err := a.CreatePlaylist(context.Background(), "listener", "x", "y", false)
	require.NoError(t, err)
	assert.Equal(t, "https://open.spotify.com/playlist/newpl", pl.URL)
}

func TestSpotifyAddTracksRejectsForeignURIs(t *testing.T) {
	f := &fakeSpotify{}
	a := newSpotifyTestAdapter(t, f)

	err := a.AddTracks(context.Background(), "pl", []string{"spotify:track:ok", "spotify:episode:nope"})
	require.Error(t, err)
	assert.Empty(t, f.added)
}

func TestSpotifyDoesNotRetryThrottledRequests(t *testing.T) {
	f := &fakeSpotify{throttle: 1}
	a := newSpotifyTestAdapter(t, f)

	_, err := a.SearchArtists(context.Background(), "Tycho", 3)
	require.Error(t, err)
	assert.Len(t, f.queries, 1)

	got, err := a.SearchArtists(context.Background(), "Tycho", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}
