package recommend

import (
	"context"
	"discovernow/internal/adapters"
	"discovernow/internal/logging"
	"discovernow/internal/playlist"
)

// CollectSeeds fetches the track at every offset, in order. Offsets that fail
// or hold nothing are skipped without retry.
func CollectSeeds(ctx context.Context, source adapters.SourceCatalog, offsets []int) ([]playlist.SeedTrack, error) {
	log := logging.From(ctx, logging.WithComponent("seeds"))
	seeds := make([]playlist.SeedTrack, 0, len(offsets))

	for _, off := range offsets {
		if err := ctx.Err(); err != nil {
			return seeds, err
		}

		track, err := source.ItemAt(ctx, off)
		if err != nil {
			log.Debug().Err(err).Int("offset", off).Msg("skipping seed track")
			continue
		}
		if track == nil || len(track.Artists) == 0 {
			continue
		}
		seeds = append(seeds, *track)
	}

	log.Debug().Int("offsets", len(offsets)).Int("seeds", len(seeds)).Msg("collected seed tracks")
	return seeds, nil
}
