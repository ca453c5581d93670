package recommend

import (
	"context"
	"discovernow/internal/adapters"
	"discovernow/internal/playlist"
	"errors"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

var errBoom = errors.New("boom")

type fakeSource struct {
	mu       sync.Mutex
	tracks   []playlist.SeedTrack
	totalErr error
	badItems map[int]bool
	badPages map[int]bool
	itemHits []int
	pageHits []int
}

func (f *fakeSource) TotalCount(context.Context) (int, error) {
	if f.totalErr != nil {
		return 0, f.totalErr
	}
	return len(f.tracks), nil
}

func (f *fakeSource) ItemAt(_ context.Context, offset int) (*playlist.SeedTrack, error) {
	f.mu.Lock()
	f.itemHits = append(f.itemHits, offset)
	f.mu.Unlock()
	if f.badItems[offset] {
		return nil, errBoom
	}
	if offset < 0 || offset >= len(f.tracks) {
		return nil, nil
	}
	t := f.tracks[offset]
	return &t, nil
}

func (f *fakeSource) Page(_ context.Context, offset, limit int) (playlist.Page, error) {
	f.mu.Lock()
	f.pageHits = append(f.pageHits, offset)
	f.mu.Unlock()
	if f.badPages[offset] {
		return playlist.Page{}, errBoom
	}
	end := min(offset+limit, len(f.tracks))
	if offset > end {
		offset = end
	}
	return playlist.Page{Items: f.tracks[offset:end], Total: len(f.tracks)}, nil
}

type fakeSources struct {
	library   *fakeSource
	playlists map[string]*fakeSource
}

func (f *fakeSources) Library() adapters.SourceCatalog { return f.library }

func (f *fakeSources) Playlist(id string) adapters.SourceCatalog {
	if p, ok := f.playlists[id]; ok {
		return p
	}
	return &fakeSource{totalErr: errBoom}
}

type fakeSimilarity struct {
	similar map[string][]string
	fail    map[string]bool
	calls   []string
}

func (f *fakeSimilarity) SimilarArtists(_ context.Context, artist string) ([]string, error) {
	f.calls = append(f.calls, artist)
	if f.fail[artist] {
		return nil, errBoom
	}
	return f.similar[artist], nil
}

type fakeCatalog struct {
	artists     map[string][]playlist.ArtistRecord
	top         map[string][]playlist.CatalogTrack
	failSearch  map[string]bool
	searches    []string
	searchLimit int
}

func (f *fakeCatalog) SearchArtists(_ context.Context, name string, limit int) ([]playlist.ArtistRecord, error) {
	f.searches = append(f.searches, name)
	f.searchLimit = limit
	if f.failSearch[name] {
		return nil, errBoom
	}
	recs := f.artists[name]
	return recs[:min(limit, len(recs))], nil
}

func (f *fakeCatalog) TopTracks(_ context.Context, artistID string) ([]playlist.CatalogTrack, error) {
	return f.top[artistID], nil
}

type memHistory struct {
	mu         sync.Mutex
	recs       map[string]playlist.RecommendationRecord
	order      []string
	stealOnAdd map[string]bool
}

func newMemHistory() *memHistory {
	return &memHistory{recs: map[string]playlist.RecommendationRecord{}}
}

func (m *memHistory) Contains(_ context.Context, uri string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.recs[uri]
	return ok, nil
}

func (m *memHistory) Append(_ context.Context, rec playlist.RecommendationRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stealOnAdd[rec.URI] {
		// simulates a concurrent run that stored the URI first
		m.recs[rec.URI] = playlist.RecommendationRecord{URI: rec.URI, Artist: "other run"}
		delete(m.stealOnAdd, rec.URI)
		return false, nil
	}
	if _, ok := m.recs[rec.URI]; ok {
		return false, nil
	}
	m.recs[rec.URI] = rec
	m.order = append(m.order, rec.URI)
	return true, nil
}

func (m *memHistory) ForArtist(_ context.Context, artist string) ([]playlist.RecommendationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []playlist.RecommendationRecord
	for _, uri := range m.order {
		if strings.EqualFold(m.recs[uri].Artist, artist) {
			out = append(out, m.recs[uri])
		}
	}
	return out, nil
}

func (m *memHistory) CountForArtist(ctx context.Context, artist string) (int, error) {
	recs, err := m.ForArtist(ctx, artist)
	return len(recs), err
}

func (m *memHistory) List(context.Context) ([]playlist.RecommendationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]playlist.RecommendationRecord, 0, len(m.order))
	for _, uri := range m.order {
		out = append(out, m.recs[uri])
	}
	return out, nil
}

type memBlacklist struct {
	names map[string]bool
	fail  bool
}

func newMemBlacklist(names ...string) *memBlacklist {
	b := &memBlacklist{names: map[string]bool{}}
	for _, n := range names {
		b.names[strings.ToLower(n)] = true
	}
	return b
}

func (b *memBlacklist) Contains(_ context.Context, name string) (bool, error) {
	if b.fail {
		return false, errBoom
	}
	return b.names[strings.ToLower(strings.TrimSpace(name))], nil
}

func (b *memBlacklist) Append(_ context.Context, rec playlist.BlacklistRecord) (bool, error) {
	key := strings.ToLower(rec.Name)
	if b.names[key] {
		return false, nil
	}
	b.names[key] = true
	return true, nil
}

func (b *memBlacklist) List(context.Context) ([]playlist.BlacklistRecord, error) {
	var out []playlist.BlacklistRecord
	for n := range b.names {
		out = append(out, playlist.BlacklistRecord{Name: n})
	}
	return out, nil
}

type fakeAuth struct {
	err error
}

func (f *fakeAuth) ValidToken(context.Context) (*oauth2.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{AccessToken: "token"}, nil
}

type fakeAssembler struct {
	got   []playlist.ResolvedTrack
	err   error
	calls int
}

func (f *fakeAssembler) Assemble(_ context.Context, tracks []playlist.ResolvedTrack) (playlist.Playlist, error) {
	f.calls++
	if f.err != nil {
		return playlist.Playlist{}, f.err
	}
	f.got = append([]playlist.ResolvedTrack(nil), tracks...)
	return playlist.Playlist{
		ID:         "pl1",
		Name:       "Discover NOW",
		URL:        "https://open.spotify.com/playlist/pl1",
		TrackCount: len(tracks),
	}, nil
}

type scriptedResolver struct {
	results map[string]*playlist.ResolvedTrack
	fail    map[string]bool
	calls   []string
}

func (s *scriptedResolver) Resolve(_ context.Context, candidate string) (*playlist.ResolvedTrack, error) {
	s.calls = append(s.calls, candidate)
	if s.fail[candidate] {
		return nil, errBoom
	}
	return s.results[candidate], nil
}

func seed(name string, artists ...string) playlist.SeedTrack {
	return playlist.SeedTrack{Name: name, Artists: artists}
}

func candidates(names ...string) []playlist.CandidateArtist {
	out := make([]playlist.CandidateArtist, len(names))
	for i, n := range names {
		out[i] = playlist.CandidateArtist{Name: n}
	}
	return out
}
