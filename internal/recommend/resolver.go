package recommend

import (
	"context"
	"discovernow/internal/adapters"
	"discovernow/internal/logging"
	"discovernow/internal/playlist"
	"discovernow/internal/store"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultSearchLimit    = 3
	DefaultMatchThreshold = 70.0
	DefaultTopTrackScan   = 5

	exactMatchScore     = 100.0
	substringMatchScore = 80.0
)

// ResolverOptions tunes artist matching and track selection
type ResolverOptions struct {
	SearchLimit    int
	MatchThreshold float64
	TopTrackScan   int
	// MaxPerArtist skips artists with this many recommendations already. 0 disables.
	MaxPerArtist int
}

// DefaultResolverOptions returns the standard matching settings
func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{
		SearchLimit:    DefaultSearchLimit,
		MatchThreshold: DefaultMatchThreshold,
		TopTrackScan:   DefaultTopTrackScan,
	}
}

// Resolver maps a candidate artist name to one not yet recommended track
type Resolver struct {
	catalog adapters.TargetCatalog
	history store.RecommendationStore
	opts    ResolverOptions
	now     func() time.Time
}

// NewResolver creates a Resolver recording its picks in history
func NewResolver(catalog adapters.TargetCatalog, history store.RecommendationStore, opts ResolverOptions) *Resolver {
	def := DefaultResolverOptions()
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = def.SearchLimit
	}
	if opts.TopTrackScan <= 0 {
		opts.TopTrackScan = def.TopTrackScan
	}
	return &Resolver{catalog: catalog, history: history, opts: opts, now: time.Now}
}

// MatchScore rates how well a catalog artist name matches a candidate name,
// from 0 to 100
func MatchScore(candidate, record string) float64 {
	a := strings.ToLower(strings.TrimSpace(candidate))
	b := strings.ToLower(strings.TrimSpace(record))
	switch {
	case a == b:
		return exactMatchScore
	case a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)):
		return substringMatchScore
	default:
		return Similarity(a, b) * 100
	}
}

// BestMatch returns the highest scoring record and its score, or nil when no
// record reaches threshold
func BestMatch(candidate string, records []playlist.ArtistRecord, threshold float64) (*playlist.ArtistRecord, float64) {
	var (
		best      *playlist.ArtistRecord
		bestScore float64
	)
	for i := range records {
		score := MatchScore(candidate, records[i].Name)
		if score > bestScore && score >= threshold {
			best = &records[i]
			bestScore = score
		}
	}
	return best, bestScore
}

// Resolve returns nil, nil when the candidate has no acceptable catalog match
// or every scanned top track was recommended before. The returned track is
// already recorded in history.
func (r *Resolver) Resolve(ctx context.Context, candidate string) (*playlist.ResolvedTrack, error) {
	log := logging.From(ctx, logging.WithComponent("resolver")).With().Str("candidate", candidate).Logger()

	records, err := r.catalog.SearchArtists(ctx, candidate, r.opts.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search artist %q: %w", candidate, err)
	}

	match, score := BestMatch(candidate, records, r.opts.MatchThreshold)
	if match == nil {
		log.Debug().Int("results", len(records)).Msg("no catalog artist above threshold")
		return nil, nil
	}

	if r.opts.MaxPerArtist > 0 {
		n, err := r.history.CountForArtist(ctx, match.Name)
		if err != nil {
			return nil, fmt.Errorf("count history for %q: %w", match.Name, err)
		}
		if n >= r.opts.MaxPerArtist {
			log.Debug().Int("recommended", n).Msg("artist reached recommendation limit")
			return nil, nil
		}
	}

	tracks, err := r.catalog.TopTracks(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("top tracks of %q: %w", match.Name, err)
	}

	for _, t := range tracks[:min(r.opts.TopTrackScan, len(tracks))] {
		if t.URI == "" {
			continue
		}
		seen, err := r.history.Contains(ctx, t.URI)
		if err != nil {
			return nil, fmt.Errorf("check history for %s: %w", t.URI, err)
		}
		if seen {
			continue
		}

		// history is keyed on the matched artist so CountForArtist sees it
		artist := match.Name

		inserted, err := r.history.Append(ctx, playlist.RecommendationRecord{
			URI:       t.URI,
			Name:      t.Name,
			Artist:    artist,
			DateAdded: r.now(),
		})
		if err != nil {
			return nil, fmt.Errorf("record recommendation %s: %w", t.URI, err)
		}
		if !inserted {
			// another run recorded it between Contains and Append
			continue
		}

		log.Debug().Str("artist", artist).Str("track", t.Name).Float64("score", score).Msg("resolved track")
		return &playlist.ResolvedTrack{
			Artist:      artist,
			Name:        t.Name,
			PreviewURL:  t.PreviewURL,
			ExternalURL: t.ExternalURL,
			URI:         t.URI,
		}, nil
	}

	log.Debug().Str("artist", match.Name).Msg("all top tracks already recommended")
	return nil, nil
}
