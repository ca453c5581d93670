package actions

import (
	"discovernow/internal/adapters"
	"discovernow/internal/auth"
	"discovernow/internal/config"
	"discovernow/internal/logging"
	"discovernow/internal/store"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

// runtime is what every command needs: configuration, storage and output
type runtime struct {
	cfg     *config.Config
	backend store.Backend
	out     io.Writer
}

// setup loads configuration, initializes logging and opens the store
func setup(c *cli.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if c.Bool("verbose") {
		level = "debug"
	}
	logging.Init(logging.Config{
		Level:     level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	backend, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	out := c.App.Writer
	if out == nil {
		out = os.Stdout
	}
	return &runtime{cfg: cfg, backend: backend, out: out}, nil
}

func (r *runtime) Close() {
	if err := r.backend.Close(); err != nil {
		logging.Warn().Err(err).Msg("failed to close store")
	}
}

// spotify returns the token provider and a Spotify adapter authorized by it
func (r *runtime) spotify() (*auth.Provider, *adapters.SpotifyAdapter, error) {
	if err := r.cfg.RequireSpotify(); err != nil {
		return nil, nil, err
	}
	provider := auth.NewProvider(r.cfg.Spotify, r.backend.Tokens())
	adapter := adapters.NewSpotifyAdapter(provider.Client(), r.cfg.Spotify.Market, r.cfg.Resilience)
	return provider, adapter, nil
}

// similarity returns the configured similarity provider
func (r *runtime) similarity(spotify *adapters.SpotifyAdapter) (adapters.SimilarityService, error) {
	var lastfm *adapters.LastFMAdapter
	if r.cfg.Similarity.Provider == string(adapters.LastFMPlatform) {
		if err := r.cfg.RequireLastFM(); err != nil {
			return nil, err
		}
		var err error
		lastfm, err = adapters.NewLastFMAdapter(r.cfg.LastFM, r.cfg.Resilience, nil)
		if err != nil {
			return nil, err
		}
	}
	return adapters.NewSimilarityService(r.cfg.Similarity.Provider, lastfm, spotify)
}
