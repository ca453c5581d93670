// Package store keeps the durable state of discovernow: the recommendation
// history, the artist blacklist and the OAuth token.
//
// Uniqueness is enforced on the write path. Append inserts only when the key
// is absent and reports whether it did, so concurrent runs cannot store the
// same URI or blacklist name twice.
package store

import (
	"context"
	"discovernow/internal/config"
	"discovernow/internal/playlist"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("not found")

const (
	recommendationPrefix = "rec:"
	artistIndexPrefix    = "rec_artist:"
	blacklistPrefix      = "blacklist:"
	tokenKey             = "token:spotify"
)

// RecommendationStore is the history of recommended tracks, unique by URI
type RecommendationStore interface {
	Contains(ctx context.Context, uri string) (bool, error)
	// Append stores rec unless its URI is already present and reports whether it did
	Append(ctx context.Context, rec playlist.RecommendationRecord) (bool, error)
	ForArtist(ctx context.Context, artist string) ([]playlist.RecommendationRecord, error)
	CountForArtist(ctx context.Context, artist string) (int, error)
	List(ctx context.Context) ([]playlist.RecommendationRecord, error)
}

// BlacklistStore holds artists that are never recommended, unique by
// case-insensitive name
type BlacklistStore interface {
	Contains(ctx context.Context, name string) (bool, error)
	Append(ctx context.Context, rec playlist.BlacklistRecord) (bool, error)
	List(ctx context.Context) ([]playlist.BlacklistRecord, error)
}

// TokenStore persists the OAuth token between runs
type TokenStore interface {
	LoadToken(ctx context.Context) (*oauth2.Token, error)
	SaveToken(ctx context.Context, tok *oauth2.Token) error
}

// Backend bundles the stores sharing one database
type Backend interface {
	Recommendations() RecommendationStore
	Blacklist() BlacklistStore
	Tokens() TokenStore
	Close() error
}

// Open connects the backend named in cfg
func Open(cfg config.StoreConfig) (Backend, error) {
	switch cfg.Backend {
	case "badger":
		s, err := OpenBadger(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		s, err := OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

// artistKey is the case-insensitive key for artist and blacklist lookups
func artistKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func recommendationKey(uri string) string {
	return recommendationPrefix + uri
}

func artistIndexKey(artist, uri string) string {
	return artistIndexPrefix + artistKey(artist) + "\x00" + uri
}

func blacklistKey(name string) string {
	return blacklistPrefix + artistKey(name)
}

func validateRecommendation(rec *playlist.RecommendationRecord) error {
	if rec.URI == "" {
		return errors.New("recommendation uri must not be empty")
	}
	if rec.DateAdded.IsZero() {
		rec.DateAdded = time.Now()
	}
	return nil
}

func validateBlacklist(rec *playlist.BlacklistRecord) error {
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		return errors.New("blacklist name must not be empty")
	}
	if rec.DateBlacklisted.IsZero() {
		rec.DateBlacklisted = time.Now()
	}
	return nil
}

// newestFirst orders history for display
func newestFirst(recs []playlist.RecommendationRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].DateAdded.After(recs[j].DateAdded)
	})
}
