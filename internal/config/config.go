// Package config loads discovernow settings from defaults, an optional YAML
// file, a .env file and the process environment, in that order of precedence
// (later wins).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration
type Config struct {
	Spotify    SpotifyConfig    `koanf:"spotify"`
	LastFM     LastFMConfig     `koanf:"lastfm"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Playlist   PlaylistConfig   `koanf:"playlist"`
	Store      StoreConfig      `koanf:"store"`
	Resilience ResilienceConfig `koanf:"resilience"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// SpotifyConfig holds the Spotify application credentials
type SpotifyConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURL  string `koanf:"redirect_url"`
	// Market is the country code used for top-track lookups
	Market string `koanf:"market"`
}

// LastFMConfig configures the Last.fm similarity service
type LastFMConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	// Limit caps the similar artists returned per seed artist
	Limit int `koanf:"limit"`
}

// SimilarityConfig selects the similarity provider
type SimilarityConfig struct {
	// Provider is lastfm or spotify
	Provider string `koanf:"provider"`
}

// RecommendConfig tunes the pipeline
type RecommendConfig struct {
	Strategy        string  `koanf:"strategy"`
	MaxSamples      int     `koanf:"max_samples"`
	TargetArtists   int     `koanf:"target_artists"`
	TargetTracks    int     `koanf:"target_tracks"`
	MaxAttempts     int     `koanf:"max_attempts"`
	SearchLimit     int     `koanf:"search_limit"`
	MatchThreshold  float64 `koanf:"match_threshold"`
	TopTrackScan    int     `koanf:"top_track_scan"`
	LibraryPageSize int     `koanf:"library_page_size"`
	// MaxPerArtist skips artists recommended this many times already. 0 disables.
	MaxPerArtist int `koanf:"max_per_artist"`
}

// PlaylistConfig controls how the generated playlist is named
type PlaylistConfig struct {
	TitleLabel  string `koanf:"title_label"`
	Description string `koanf:"description"`
	Public      bool   `koanf:"public"`
}

// StoreConfig selects where history, blacklist and tokens live
type StoreConfig struct {
	// Backend is badger or redis
	Backend       string `koanf:"backend"`
	Path          string `koanf:"path"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// ResilienceConfig bounds the rate and failure handling of external calls
type ResilienceConfig struct {
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	BreakerFailures   uint32        `koanf:"breaker_failures"`
	BreakerTimeout    time.Duration `koanf:"breaker_timeout"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
}

// LoggingConfig mirrors logging.Config
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

var validStrategies = map[string]bool{
	"all-random":    true,
	"super-recent":  true,
	"recent":        true,
	"half-and-half": true,
}

// Validate checks the loaded configuration. Credentials are not checked here
// because commands such as blacklist never talk to a remote service.
func (c *Config) Validate() error {
	var errs []error

	if !validStrategies[strings.ToLower(c.Recommend.Strategy)] {
		errs = append(errs, fmt.Errorf("recommend.strategy %q is not one of all-random, super-recent, recent, half-and-half", c.Recommend.Strategy))
	}
	if c.Recommend.MaxSamples <= 0 {
		errs = append(errs, errors.New("recommend.max_samples must be positive"))
	}
	if c.Recommend.TargetArtists <= 0 {
		errs = append(errs, errors.New("recommend.target_artists must be positive"))
	}
	if c.Recommend.TargetTracks <= 0 {
		errs = append(errs, errors.New("recommend.target_tracks must be positive"))
	}
	if c.Recommend.MaxAttempts <= 0 {
		errs = append(errs, errors.New("recommend.max_attempts must be positive"))
	}
	if c.Recommend.SearchLimit <= 0 || c.Recommend.SearchLimit > 50 {
		errs = append(errs, errors.New("recommend.search_limit must be between 1 and 50"))
	}
	if c.Recommend.MatchThreshold < 0 || c.Recommend.MatchThreshold > 100 {
		errs = append(errs, errors.New("recommend.match_threshold must be between 0 and 100"))
	}
	if c.Recommend.TopTrackScan <= 0 {
		errs = append(errs, errors.New("recommend.top_track_scan must be positive"))
	}
	if c.Recommend.LibraryPageSize <= 0 || c.Recommend.LibraryPageSize > 50 {
		errs = append(errs, errors.New("recommend.library_page_size must be between 1 and 50"))
	}
	if c.Recommend.MaxPerArtist < 0 {
		errs = append(errs, errors.New("recommend.max_per_artist must not be negative"))
	}

	switch c.Similarity.Provider {
	case "lastfm", "spotify":
	default:
		errs = append(errs, fmt.Errorf("similarity.provider %q is not one of lastfm, spotify", c.Similarity.Provider))
	}

	switch c.Store.Backend {
	case "badger":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the badger backend"))
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not one of badger, redis", c.Store.Backend))
	}

	if c.Resilience.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("resilience.requests_per_second must be positive"))
	}
	if c.Resilience.Burst <= 0 {
		errs = append(errs, errors.New("resilience.burst must be positive"))
	}

	return errors.Join(errs...)
}

// RequireSpotify reports missing Spotify credentials
func (c *Config) RequireSpotify() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return errors.New("spotify client ID and secret must be set (SPOTIFY_ID / SPOTIFY_SECRET or spotify.client_id / spotify.client_secret)")
	}
	return nil
}

// RequireLastFM reports a missing Last.fm key when Last.fm is the provider
func (c *Config) RequireLastFM() error {
	if c.Similarity.Provider == "lastfm" && c.LastFM.APIKey == "" {
		return errors.New("lastfm api key must be set (LASTFM_API_KEY or lastfm.api_key)")
	}
	return nil
}
