package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file search
const ConfigPathEnvVar = "DISCOVERNOW_CONFIG"

// DefaultConfigPaths are tried in order when ConfigPathEnvVar is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

func defaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURL: "http://localhost:8080/callback",
			Market:      "US",
		},
		LastFM: LastFMConfig{
			BaseURL: "https://ws.audioscrobbler.com/2.0/",
			Limit:   50,
		},
		Similarity: SimilarityConfig{
			Provider: "lastfm",
		},
		Recommend: RecommendConfig{
			Strategy:        "recent",
			MaxSamples:      50,
			TargetArtists:   50,
			TargetTracks:    20,
			MaxAttempts:     100,
			SearchLimit:     3,
			MatchThreshold:  70,
			TopTrackScan:    5,
			LibraryPageSize: 50,
			MaxPerArtist:    0,
		},
		Playlist: PlaylistConfig{
			TitleLabel:  "Discover NOW",
			Description: "Generated playlist from similar artists",
			Public:      false,
		},
		Store: StoreConfig{
			Backend:   "badger",
			Path:      defaultStorePath(),
			RedisAddr: "localhost:6379",
		},
		Resilience: ResilienceConfig{
			RequestsPerSecond: 5,
			Burst:             5,
			BreakerFailures:   5,
			BreakerTimeout:    30 * time.Second,
			RequestTimeout:    15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "discovernow-data")
	}
	return filepath.Join(dir, "discovernow", "data")
}

// Load builds the configuration: defaults, then the YAML file, then .env and
// the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.Recommend.Strategy = strings.ToLower(cfg.Recommend.Strategy)
	cfg.Similarity.Provider = strings.ToLower(cfg.Similarity.Provider)
	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	paths := append([]string{}, DefaultConfigPaths...)
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "discovernow", "config.yaml"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// envMappings maps environment variables to config keys. SPOTIFY_ID and
// SPOTIFY_SECRET are the names spotifyauth reads on its own.
var envMappings = map[string]string{
	"spotify_id":           "spotify.client_id",
	"spotify_secret":       "spotify.client_secret",
	"spotify_redirect_url": "spotify.redirect_url",
	"spotify_market":       "spotify.market",

	"lastfm_api_key":  "lastfm.api_key",
	"lastfm_base_url": "lastfm.base_url",
	"lastfm_limit":    "lastfm.limit",

	"discovernow_similarity_provider": "similarity.provider",

	"discovernow_strategy":          "recommend.strategy",
	"discovernow_max_samples":       "recommend.max_samples",
	"discovernow_target_artists":    "recommend.target_artists",
	"discovernow_target_tracks":     "recommend.target_tracks",
	"discovernow_max_attempts":      "recommend.max_attempts",
	"discovernow_search_limit":      "recommend.search_limit",
	"discovernow_match_threshold":   "recommend.match_threshold",
	"discovernow_top_track_scan":    "recommend.top_track_scan",
	"discovernow_library_page_size": "recommend.library_page_size",
	"discovernow_max_per_artist":    "recommend.max_per_artist",

	"discovernow_playlist_label":       "playlist.title_label",
	"discovernow_playlist_description": "playlist.description",
	"discovernow_playlist_public":      "playlist.public",

	"discovernow_store_backend":  "store.backend",
	"discovernow_store_path":     "store.path",
	"discovernow_redis_addr":     "store.redis_addr",
	"discovernow_redis_password": "store.redis_password",
	"discovernow_redis_db":       "store.redis_db",

	"discovernow_requests_per_second": "resilience.requests_per_second",
	"discovernow_burst":               "resilience.burst",
	"discovernow_breaker_failures":    "resilience.breaker_failures",
	"discovernow_breaker_timeout":     "resilience.breaker_timeout",
	"discovernow_request_timeout":     "resilience.request_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns the config key for an environment variable, or ""
// to ignore it
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
