package store

import (
	"context"
	"discovernow/internal/playlist"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

// Concurrent conditional inserts on the same key make one transaction fail
// with badger.ErrConflict; it is retried and then sees the winner's key.
const maxConflictRetries = 5

// BadgerStore is the embedded on-disk backend
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a badger database in dir
func OpenBadger(dir string) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close closes the database
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Recommendations returns the history view
func (s *BadgerStore) Recommendations() RecommendationStore {
	return &badgerRecommendations{s}
}

// Blacklist returns the blacklist view
func (s *BadgerStore) Blacklist() BlacklistStore {
	return &badgerBlacklist{s}
}

// Tokens returns the token view
func (s *BadgerStore) Tokens() TokenStore {
	return &badgerTokens{s}
}

func (s *BadgerStore) update(fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			continue
		}
		return err
	}
}

func (s *BadgerStore) exists(key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// insertIfAbsent sets key (and the extra keys) unless key already exists
func (s *BadgerStore) insertIfAbsent(key string, value []byte, extra map[string][]byte) (bool, error) {
	var inserted bool
	err := s.update(func(txn *badger.Txn) error {
		inserted = false
		_, err := txn.Get([]byte(key))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set([]byte(key), value); err != nil {
			return err
		}
		for k, v := range extra {
			if err := txn.Set([]byte(k), v); err != nil {
				return err
			}
		}
		inserted = true
		return nil
	})
	return inserted, err
}

// scan calls fn with the value of every key under prefix
func (s *BadgerStore) scan(prefix string, fn func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

type badgerRecommendations struct {
	s *BadgerStore
}

func (r *badgerRecommendations) Contains(_ context.Context, uri string) (bool, error) {
	found, err := r.s.exists(recommendationKey(uri))
	if err != nil {
		return false, fmt.Errorf("lookup recommendation: %w", err)
	}
	return found, nil
}

func (r *badgerRecommendations) Append(_ context.Context, rec playlist.RecommendationRecord) (bool, error) {
	if err := validateRecommendation(&rec); err != nil {
		return false, err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("marshal recommendation: %w", err)
	}

	inserted, err := r.s.insertIfAbsent(recommendationKey(rec.URI), data, map[string][]byte{
		artistIndexKey(rec.Artist, rec.URI): []byte(rec.URI),
	})
	if err != nil {
		return false, fmt.Errorf("append recommendation: %w", err)
	}
	return inserted, nil
}

func (r *badgerRecommendations) ForArtist(_ context.Context, artist string) ([]playlist.RecommendationRecord, error) {
	var recs []playlist.RecommendationRecord
	err := r.s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(artistIndexPrefix + artistKey(artist) + "\x00")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			uri, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			item, err := txn.Get([]byte(recommendationKey(string(uri))))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			var rec playlist.RecommendationRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list recommendations for %s: %w", artist, err)
	}
	newestFirst(recs)
	return recs, nil
}

func (r *badgerRecommendations) CountForArtist(_ context.Context, artist string) (int, error) {
	var n int
	err := r.s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(artistIndexPrefix + artistKey(artist) + "\x00")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count recommendations for %s: %w", artist, err)
	}
	return n, nil
}

func (r *badgerRecommendations) List(_ context.Context) ([]playlist.RecommendationRecord, error) {
	var recs []playlist.RecommendationRecord
	err := r.s.scan(recommendationPrefix, func(val []byte) error {
		var rec playlist.RecommendationRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return err
		}
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	newestFirst(recs)
	return recs, nil
}

type badgerBlacklist struct {
	s *BadgerStore
}

func (b *badgerBlacklist) Contains(_ context.Context, name string) (bool, error) {
	found, err := b.s.exists(blacklistKey(name))
	if err != nil {
		return false, fmt.Errorf("lookup blacklist: %w", err)
	}
	return found, nil
}

func (b *badgerBlacklist) Append(_ context.Context, rec playlist.BlacklistRecord) (bool, error) {
	if err := validateBlacklist(&rec); err != nil {
		return false, err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("marshal blacklist entry: %w", err)
	}

	inserted, err := b.s.insertIfAbsent(blacklistKey(rec.Name), data, nil)
	if err != nil {
		return false, fmt.Errorf("append blacklist entry: %w", err)
	}
	return inserted, nil
}

func (b *badgerBlacklist) List(_ context.Context) ([]playlist.BlacklistRecord, error) {
	var recs []playlist.BlacklistRecord
	err := b.s.scan(blacklistPrefix, func(val []byte) error {
		var rec playlist.BlacklistRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return err
		}
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	return recs, nil
}

type badgerTokens struct {
	s *BadgerStore
}

func (t *badgerTokens) LoadToken(_ context.Context) (*oauth2.Token, error) {
	var tok oauth2.Token
	err := t.s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tokenKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &tok)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load token: %w", err)
	}
	return &tok, nil
}

func (t *badgerTokens) SaveToken(_ context.Context, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	return t.s.update(func(txn *badger.Txn) error {
		return txn.Set([]byte(tokenKey), data)
	})
}
