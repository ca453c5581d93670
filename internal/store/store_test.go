package store

import (
	"context"
	"discovernow/internal/config"
	"discovernow/internal/playlist"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func openTestBadger(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// backends returns every backend available in this environment
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	out := map[string]Backend{"badger": openTestBadger(t)}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		r, err := OpenRedis(addr, "", 15)
		require.NoError(t, err)
		require.NoError(t, r.client.FlushDB(context.Background()).Err())
		t.Cleanup(func() {
			r.client.FlushDB(context.Background())
			r.Close()
		})
		out["redis"] = r
	}
	return out
}

func TestRecommendationAppendIsIdempotent(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			recs := b.Recommendations()

			rec := playlist.RecommendationRecord{URI: "spotify:track:1", Name: "Kiara", Artist: "Bonobo"}
			inserted, err := recs.Append(ctx, rec)
			require.NoError(t, err)
			assert.True(t, inserted)

			rec.Name = "Kiara (edit)"
			inserted, err = recs.Append(ctx, rec)
			require.NoError(t, err)
			assert.False(t, inserted)

			found, err := recs.Contains(ctx, "spotify:track:1")
			require.NoError(t, err)
			assert.True(t, found)

			found, err = recs.Contains(ctx, "spotify:track:2")
			require.NoError(t, err)
			assert.False(t, found)

			all, err := recs.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "Kiara", all[0].Name, "first write wins")
			assert.False(t, all[0].DateAdded.IsZero())
		})
	}
}

func TestRecommendationAppendRejectsEmptyURI(t *testing.T) {
	s := openTestBadger(t)
	_, err := s.Recommendations().Append(context.Background(), playlist.RecommendationRecord{Name: "x"})
	assert.Error(t, err)
}

func TestRecommendationConcurrentAppend(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			recs := b.Recommendations()

			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				winners  int
				firstErr error
			)
			for i := range 16 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					inserted, err := recs.Append(ctx, playlist.RecommendationRecord{
						URI:    "spotify:track:race",
						Name:   fmt.Sprintf("writer %d", i),
						Artist: "Four Tet",
					})
					mu.Lock()
					defer mu.Unlock()
					if err != nil && firstErr == nil {
						firstErr = err
					}
					if inserted {
						winners++
					}
				}()
			}
			wg.Wait()

			require.NoError(t, firstErr)
			assert.Equal(t, 1, winners)

			n, err := recs.CountForArtist(ctx, "four tet")
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestRecommendationsForArtist(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			recs := b.Recommendations()
			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

			for i, r := range []playlist.RecommendationRecord{
				{URI: "u:1", Name: "Open Eye Signal", Artist: "Jon Hopkins", DateAdded: base},
				{URI: "u:2", Name: "Emerald Rush", Artist: "Jon Hopkins", DateAdded: base.Add(time.Hour)},
				{URI: "u:3", Name: "Glue", Artist: "Bicep", DateAdded: base.Add(2 * time.Hour)},
			} {
				_, err := recs.Append(ctx, r)
				require.NoError(t, err, "record %d", i)
			}

			got, err := recs.ForArtist(ctx, "JON HOPKINS")
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "Emerald Rush", got[0].Name, "newest first")
			assert.Equal(t, "Open Eye Signal", got[1].Name)

			n, err := recs.CountForArtist(ctx, "Jon Hopkins")
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			n, err = recs.CountForArtist(ctx, "Jon")
			require.NoError(t, err)
			assert.Equal(t, 0, n, "artist prefix must not match a longer name")

			all, err := recs.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "Glue", all[0].Name)
		})
	}
}

func TestBlacklistIsCaseInsensitiveAndIdempotent(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			bl := b.Blacklist()

			inserted, err := bl.Append(ctx, playlist.BlacklistRecord{Name: "Nickelback"})
			require.NoError(t, err)
			assert.True(t, inserted)

			inserted, err = bl.Append(ctx, playlist.BlacklistRecord{Name: "Nickelback"})
			require.NoError(t, err)
			assert.False(t, inserted)

			inserted, err = bl.Append(ctx, playlist.BlacklistRecord{Name: "  NICKELBACK "})
			require.NoError(t, err)
			assert.False(t, inserted)

			found, err := bl.Contains(ctx, "nickelback")
			require.NoError(t, err)
			assert.True(t, found)

			found, err = bl.Contains(ctx, "Creed")
			require.NoError(t, err)
			assert.False(t, found)

			all, err := bl.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "Nickelback", all[0].Name)
		})
	}
}

func TestBlacklistRejectsBlankName(t *testing.T) {
	s := openTestBadger(t)
	_, err := s.Blacklist().Append(context.Background(), playlist.BlacklistRecord{Name: "   "})
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tokens := b.Tokens()

			_, err := tokens.LoadToken(ctx)
			require.ErrorIs(t, err, ErrNotFound)

			expiry := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
			require.NoError(t, tokens.SaveToken(ctx, &oauth2.Token{
				AccessToken:  "access",
				RefreshToken: "refresh",
				TokenType:    "Bearer",
				Expiry:       expiry,
			}))

			tok, err := tokens.LoadToken(ctx)
			require.NoError(t, err)
			assert.Equal(t, "access", tok.AccessToken)
			assert.Equal(t, "refresh", tok.RefreshToken)
			assert.True(t, expiry.Equal(tok.Expiry))
		})
	}
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(dir)
	require.NoError(t, err)
	_, err = s.Blacklist().Append(ctx, playlist.BlacklistRecord{Name: "Coldplay"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(config.StoreConfig{Backend: "badger", Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	found, err := reopened.Blacklist().Contains(ctx, "coldplay")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(config.StoreConfig{Backend: "sqlite"})
	assert.Error(t, err)
}

func TestOpenFailureReturnsNilBackend(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	b, err := Open(config.StoreConfig{Backend: "badger", Path: file})
	require.Error(t, err)
	assert.True(t, b == nil, "backend must be an untyped nil")

	b, err = Open(config.StoreConfig{Backend: "redis", RedisAddr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.True(t, b == nil, "backend must be an untyped nil")
}
