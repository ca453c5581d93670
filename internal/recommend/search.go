package recommend

import (
	"context"
	"discovernow/internal/logging"
	"discovernow/internal/playlist"
)

const (
	DefaultTargetTracks = 20
	DefaultMaxAttempts  = 100
)

// TrackResolver is the part of Resolver the search loop needs
type TrackResolver interface {
	Resolve(ctx context.Context, candidate string) (*playlist.ResolvedTrack, error)
}

// SearchLoop walks candidates in order until enough tracks are resolved
type SearchLoop struct {
	resolver TrackResolver
}

// NewSearchLoop creates a SearchLoop over resolver
func NewSearchLoop(resolver TrackResolver) *SearchLoop {
	return &SearchLoop{resolver: resolver}
}

// Run resolves candidates one at a time and stops when target tracks are
// found, candidates run out or maxAttempts resolutions were tried. Each
// candidate is tried at most once and a failure only skips that candidate.
func (l *SearchLoop) Run(ctx context.Context, candidates []playlist.CandidateArtist, target, maxAttempts int) ([]playlist.ResolvedTrack, error) {
	log := logging.From(ctx, logging.WithComponent("search"))
	if target <= 0 {
		target = DefaultTargetTracks
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	results := make([]playlist.ResolvedTrack, 0, min(target, len(candidates)))
	uris := map[string]struct{}{}
	cursor, attempts := 0, 0

	for len(results) < target && cursor < len(candidates) && attempts < maxAttempts {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		candidate := candidates[cursor]
		cursor++
		attempts++

		track, err := l.resolver.Resolve(ctx, candidate.Name)
		if err != nil {
			log.Warn().Err(err).Str("candidate", candidate.Name).Msg("resolution failed")
			continue
		}
		if track == nil {
			continue
		}
		if _, dup := uris[track.URI]; dup {
			continue
		}
		uris[track.URI] = struct{}{}
		results = append(results, *track)
	}

	log.Info().
		Int("tracks", len(results)).
		Int("target", target).
		Int("attempts", attempts).
		Int("candidates", len(candidates)).
		Msg("track search finished")
	return results, nil
}
