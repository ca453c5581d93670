// Package recommend implements the recommendation pipeline: sample seed
// tracks, expand their artists into similar ones the listener does not know,
// resolve those to tracks and hand them to a playlist assembler.
package recommend

import (
	"context"
	"discovernow/internal/adapters"
	"discovernow/internal/logging"
	"discovernow/internal/playlist"
	"discovernow/internal/store"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidPlaylist is returned for a playlist reference without an ID
var ErrInvalidPlaylist = errors.New("invalid playlist reference")

var (
	playlistRefPattern = regexp.MustCompile(`playlist[/:](\w+)`)
	bareIDPattern      = regexp.MustCompile(`^[A-Za-z0-9]{22}$`)
)

// ExtractPlaylistID accepts a playlist URL, URI or bare ID
func ExtractPlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if m := playlistRefPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if bareIDPattern.MatchString(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPlaylist, ref)
}

// Sources opens the catalogs seed tracks are sampled from
type Sources interface {
	Library() adapters.SourceCatalog
	Playlist(id string) adapters.SourceCatalog
}

// Assembler turns resolved tracks into a stored playlist
type Assembler interface {
	Assemble(ctx context.Context, tracks []playlist.ResolvedTrack) (playlist.Playlist, error)
}

// Deps are the collaborators of a Pipeline
type Deps struct {
	Auth       adapters.AuthProvider
	Sources    Sources
	Similarity adapters.SimilarityService
	Catalog    adapters.TargetCatalog
	History    store.RecommendationStore
	Blacklist  store.BlacklistStore
	Assembler  Assembler
	// Sampler defaults to a randomly seeded one
	Sampler *Sampler
}

// Options tunes a Pipeline
type Options struct {
	Strategy      Strategy
	MaxSamples    int
	PageSize      int
	TargetArtists int
	TargetTracks  int
	MaxAttempts   int
	Resolver      ResolverOptions
}

// DefaultOptions returns the standard pipeline settings
func DefaultOptions() Options {
	return Options{
		Strategy:      StrategyRecent,
		MaxSamples:    50,
		PageSize:      DefaultPageSize,
		TargetArtists: DefaultTargetArtists,
		TargetTracks:  DefaultTargetTracks,
		MaxAttempts:   DefaultMaxAttempts,
		Resolver:      DefaultResolverOptions(),
	}
}

// Request describes one generation run
type Request struct {
	// Strategy overrides Options.Strategy when set
	Strategy Strategy
	// Playlist samples this playlist instead of the library when set
	Playlist string
}

// Result is the outcome of a run. Tracks may be shorter than the target.
type Result struct {
	Tracks      []playlist.ResolvedTrack
	Playlist    *playlist.Playlist
	PlaylistURL string
	// PlaylistErr is set when the tracks were found but the playlist could
	// not be created; the tracks are still recorded in history
	PlaylistErr error
	SourceSize  int
	Seeds       int
	Candidates  int
	Duration    time.Duration
}

// Pipeline runs the recommendation stages in order
type Pipeline struct {
	deps     Deps
	opts     Options
	expander *Expander
	search   *SearchLoop
}

// NewPipeline wires the stages over deps
func NewPipeline(deps Deps, opts Options) *Pipeline {
	if deps.Sampler == nil {
		deps.Sampler = NewSampler()
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = DefaultOptions().MaxSamples
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyRecent
	}

	return &Pipeline{
		deps:     deps,
		opts:     opts,
		expander: NewExpander(deps.Similarity, deps.Blacklist, opts.TargetArtists),
		search:   NewSearchLoop(NewResolver(deps.Catalog, deps.History, opts.Resolver)),
	}
}

// Generate runs the whole pipeline. Only a missing credential or an
// unreadable source size abort it; everything else degrades to fewer tracks
// or a result without a playlist.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	if logging.RunIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewRunID(ctx)
	}
	log := logging.From(ctx, logging.WithComponent("pipeline"))
	started := time.Now()

	if p.deps.Auth != nil {
		if _, err := p.deps.Auth.ValidToken(ctx); err != nil {
			return nil, fmt.Errorf("authenticate: %w", err)
		}
	}

	strategy := p.opts.Strategy
	if req.Strategy != "" {
		strategy = req.Strategy
	}

	library := p.deps.Sources.Library()
	source := library
	if req.Playlist != "" {
		id, err := ExtractPlaylistID(req.Playlist)
		if err != nil {
			return nil, err
		}
		source = p.deps.Sources.Playlist(id)
		strategy = StrategyAllRandom
	}

	total, err := source.TotalCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("read source size: %w", err)
	}

	offsets := p.deps.Sampler.Sample(total, strategy, p.opts.MaxSamples)
	log.Info().Str("strategy", string(strategy)).Int("source_size", total).Int("samples", len(offsets)).Msg("sampling seed tracks")

	result := &Result{SourceSize: total, Tracks: []playlist.ResolvedTrack{}}
	if len(offsets) == 0 {
		result.Duration = time.Since(started)
		return result, nil
	}

	var (
		seeds []playlist.SeedTrack
		index ArtistIndex
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		seeds, err = CollectSeeds(gctx, source, offsets)
		return err
	})
	g.Go(func() error {
		var err error
		index, err = BuildIndex(gctx, library, p.opts.PageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.Seeds = len(seeds)

	candidates, err := p.expander.Expand(ctx, seeds, index)
	if err != nil {
		return nil, err
	}
	result.Candidates = len(candidates)
	log.Info().Int("seeds", len(seeds)).Int("library_keys", len(index)).Int("candidates", len(candidates)).Msg("expanded similar artists")

	tracks, err := p.search.Run(ctx, candidates, p.opts.TargetTracks, p.opts.MaxAttempts)
	if err != nil {
		return nil, err
	}
	result.Tracks = tracks

	if len(tracks) > 0 && p.deps.Assembler != nil {
		pl, err := p.deps.Assembler.Assemble(ctx, tracks)
		if err != nil {
			log.Warn().Err(err).Int("tracks", len(tracks)).Msg("failed to create playlist")
			result.PlaylistErr = fmt.Errorf("assemble playlist: %w", err)
		} else {
			result.Playlist = &pl
			result.PlaylistURL = pl.URL
		}
	}

	result.Duration = time.Since(started)
	log.Info().Int("tracks", len(result.Tracks)).Str("playlist_url", result.PlaylistURL).Dur("took", result.Duration).Msg("generation finished")
	return result, nil
}
