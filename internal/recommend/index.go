package recommend

import (
	"context"
	"discovernow/internal/adapters"
	"discovernow/internal/logging"
	"strings"
)

// DefaultPageSize is the library page size used to build the index
const DefaultPageSize = 50

// ArtistIndex holds every artist already in the listener's library, both as
// raw lowercase names and as normalized keys
type ArtistIndex map[string]struct{}

// Add records name in the index
func (idx ArtistIndex) Add(name string) {
	raw := strings.ToLower(strings.TrimSpace(name))
	if raw == "" {
		return
	}
	idx[raw] = struct{}{}
	if key := Normalize(name); key != raw {
		idx[key] = struct{}{}
	}
}

// Excludes reports whether name, raw or normalized, is already known
func (idx ArtistIndex) Excludes(name string) bool {
	if _, ok := idx[strings.ToLower(strings.TrimSpace(name))]; ok {
		return true
	}
	_, ok := idx[Normalize(name)]
	return ok
}

// BuildIndex walks the whole library page by page. A page that fails is
// logged and skipped.
func BuildIndex(ctx context.Context, library adapters.SourceCatalog, pageSize int) (ArtistIndex, error) {
	log := logging.From(ctx, logging.WithComponent("index"))
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	idx := ArtistIndex{}
	total := -1
	tracks := 0

	for offset := 0; total < 0 || offset < total; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return idx, err
		}

		page, err := library.Page(ctx, offset, pageSize)
		if err != nil {
			log.Warn().Err(err).Int("offset", offset).Msg("skipping library page")
			if total < 0 {
				// without a reported total there is no end to walk towards
				return idx, nil
			}
			continue
		}
		total = page.Total

		for _, t := range page.Items {
			for _, a := range t.Artists {
				idx.Add(a)
			}
		}
		tracks += len(page.Items)

		if len(page.Items) == 0 {
			break
		}
	}

	log.Debug().Int("tracks", tracks).Int("keys", len(idx)).Msg("built library artist index")
	return idx, nil
}
