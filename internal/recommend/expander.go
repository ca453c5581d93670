package recommend

import (
	"context"
	"discovernow/internal/adapters"
	"discovernow/internal/logging"
	"discovernow/internal/playlist"
	"discovernow/internal/store"
	"strings"
)

// DefaultTargetArtists is the candidate count Expand stops at
const DefaultTargetArtists = 50

// Expander turns seed artists into new candidate artists
type Expander struct {
	similar   adapters.SimilarityService
	blacklist store.BlacklistStore
	target    int
}

// NewExpander creates an Expander collecting up to target candidates
func NewExpander(similar adapters.SimilarityService, blacklist store.BlacklistStore, target int) *Expander {
	if target <= 0 {
		target = DefaultTargetArtists
	}
	return &Expander{similar: similar, blacklist: blacklist, target: target}
}

// Expand queries the similarity service once per seed artist, in seed order,
// and keeps names that are not in the library, not blacklisted and not yet
// collected. It returns as soon as the target is reached.
func (e *Expander) Expand(ctx context.Context, seeds []playlist.SeedTrack, index ArtistIndex) ([]playlist.CandidateArtist, error) {
	log := logging.From(ctx, logging.WithComponent("expander"))
	candidates := make([]playlist.CandidateArtist, 0, e.target)
	seen := map[string]struct{}{}

	for _, seed := range seeds {
		for _, artist := range seed.Artists {
			if len(candidates) >= e.target {
				return candidates, nil
			}
			if err := ctx.Err(); err != nil {
				return candidates, err
			}

			similar, err := e.similar.SimilarArtists(ctx, artist)
			if err != nil {
				log.Debug().Err(err).Str("artist", artist).Msg("similarity lookup failed")
				continue
			}

			for _, name := range similar {
				if len(candidates) >= e.target {
					return candidates, nil
				}
				name = strings.TrimSpace(name)
				if name == "" || index.Excludes(name) {
					continue
				}
				key := Normalize(name)
				if _, dup := seen[key]; dup {
					continue
				}
				if e.blacklisted(ctx, name) {
					continue
				}
				seen[key] = struct{}{}
				candidates = append(candidates, playlist.CandidateArtist{Name: name})
			}
		}
	}

	log.Debug().Int("candidates", len(candidates)).Int("target", e.target).Msg("expansion exhausted seeds")
	return candidates, nil
}

// blacklisted treats a failed lookup as blacklisted so the name is skipped
func (e *Expander) blacklisted(ctx context.Context, name string) bool {
	if e.blacklist == nil {
		return false
	}
	found, err := e.blacklist.Contains(ctx, name)
	if err != nil {
		logging.From(ctx, logging.WithComponent("expander")).Warn().Err(err).Str("artist", name).Msg("blacklist lookup failed")
		return true
	}
	return found
}
