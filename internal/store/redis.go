package store

import (
	"context"
	"discovernow/internal/playlist"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

const (
	redisNamespace          = "discovernow:"
	redisRecommendationsKey = redisNamespace + "recommendations"
	redisBlacklistKey       = redisNamespace + "blacklist"
	redisTokenKey           = redisNamespace + tokenKey
)

// RedisStore shares history and blacklist between machines. Conditional
// inserts use HSETNX, which redis applies atomically.
type RedisStore struct {
	client *redis.Client
}

// OpenRedis connects to addr and pings it
func OpenRedis(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Recommendations returns the history view
func (s *RedisStore) Recommendations() RecommendationStore {
	return &redisRecommendations{s.client}
}

// Blacklist returns the blacklist view
func (s *RedisStore) Blacklist() BlacklistStore {
	return &redisBlacklist{s.client}
}

// Tokens returns the token view
func (s *RedisStore) Tokens() TokenStore {
	return &redisTokens{s.client}
}

func redisArtistSet(artist string) string {
	return redisNamespace + artistIndexPrefix + artistKey(artist)
}

type redisRecommendations struct {
	client *redis.Client
}

func (r *redisRecommendations) Contains(ctx context.Context, uri string) (bool, error) {
	found, err := r.client.HExists(ctx, redisRecommendationsKey, uri).Result()
	if err != nil {
		return false, fmt.Errorf("lookup recommendation: %w", err)
	}
	return found, nil
}

func (r *redisRecommendations) Append(ctx context.Context, rec playlist.RecommendationRecord) (bool, error) {
	if err := validateRecommendation(&rec); err != nil {
		return false, err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("marshal recommendation: %w", err)
	}

	inserted, err := r.client.HSetNX(ctx, redisRecommendationsKey, rec.URI, data).Result()
	if err != nil {
		return false, fmt.Errorf("append recommendation: %w", err)
	}
	if inserted {
		if err := r.client.SAdd(ctx, redisArtistSet(rec.Artist), rec.URI).Err(); err != nil {
			return true, fmt.Errorf("index recommendation artist: %w", err)
		}
	}
	return inserted, nil
}

func (r *redisRecommendations) ForArtist(ctx context.Context, artist string) ([]playlist.RecommendationRecord, error) {
	uris, err := r.client.SMembers(ctx, redisArtistSet(artist)).Result()
	if err != nil {
		return nil, fmt.Errorf("list recommendations for %s: %w", artist, err)
	}
	if len(uris) == 0 {
		return nil, nil
	}

	vals, err := r.client.HMGet(ctx, redisRecommendationsKey, uris...).Result()
	if err != nil {
		return nil, fmt.Errorf("list recommendations for %s: %w", artist, err)
	}

	recs := make([]playlist.RecommendationRecord, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec playlist.RecommendationRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("decode recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	newestFirst(recs)
	return recs, nil
}

func (r *redisRecommendations) CountForArtist(ctx context.Context, artist string) (int, error) {
	n, err := r.client.SCard(ctx, redisArtistSet(artist)).Result()
	if err != nil {
		return 0, fmt.Errorf("count recommendations for %s: %w", artist, err)
	}
	return int(n), nil
}

func (r *redisRecommendations) List(ctx context.Context) ([]playlist.RecommendationRecord, error) {
	all, err := r.client.HGetAll(ctx, redisRecommendationsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}

	recs := make([]playlist.RecommendationRecord, 0, len(all))
	for _, v := range all {
		var rec playlist.RecommendationRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("decode recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	newestFirst(recs)
	return recs, nil
}

type redisBlacklist struct {
	client *redis.Client
}

func (b *redisBlacklist) Contains(ctx context.Context, name string) (bool, error) {
	found, err := b.client.HExists(ctx, redisBlacklistKey, artistKey(name)).Result()
	if err != nil {
		return false, fmt.Errorf("lookup blacklist: %w", err)
	}
	return found, nil
}

func (b *redisBlacklist) Append(ctx context.Context, rec playlist.BlacklistRecord) (bool, error) {
	if err := validateBlacklist(&rec); err != nil {
		return false, err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("marshal blacklist entry: %w", err)
	}

	inserted, err := b.client.HSetNX(ctx, redisBlacklistKey, artistKey(rec.Name), data).Result()
	if err != nil {
		return false, fmt.Errorf("append blacklist entry: %w", err)
	}
	return inserted, nil
}

func (b *redisBlacklist) List(ctx context.Context) ([]playlist.BlacklistRecord, error) {
	all, err := b.client.HGetAll(ctx, redisBlacklistKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}

	recs := make([]playlist.BlacklistRecord, 0, len(all))
	for _, v := range all {
		var rec playlist.BlacklistRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("decode blacklist entry: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

type redisTokens struct {
	client *redis.Client
}

func (t *redisTokens) LoadToken(ctx context.Context) (*oauth2.Token, error) {
	data, err := t.client.Get(ctx, redisTokenKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

func (t *redisTokens) SaveToken(ctx context.Context, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	return t.client.Set(ctx, redisTokenKey, data, 0).Err()
}
