// Package porter turns resolved tracks into a playlist on the target
// platform and exports them to CSV.
package porter

import (
	"context"
	"discovernow/internal/adapters"
	"discovernow/internal/config"
	"discovernow/internal/logging"
	"discovernow/internal/playlist"
	"discovernow/internal/utils"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultTitleLabel  = "Discover NOW"
	DefaultDescription = "Generated playlist from similar artists"
	// titleTimeLayout renders e.g. 10/16/2026 9:00:00 AM
	titleTimeLayout = "1/2/2006 3:04:05 PM"
)

// Porter assembles playlists through a PlaylistSink
type Porter struct {
	sink adapters.PlaylistSink
	cfg  config.PlaylistConfig
	now  func() time.Time
}

// NewPorter creates a new Porter writing to sink
func NewPorter(sink adapters.PlaylistSink, cfg config.PlaylistConfig) *Porter {
	if cfg.TitleLabel == "" {
		cfg.TitleLabel = DefaultTitleLabel
	}
	if cfg.Description == "" {
		cfg.Description = DefaultDescription
	}
	return &Porter{sink: sink, cfg: cfg, now: time.Now}
}

// Title returns the playlist name for a run at t
func (s *Porter) Title(t time.Time) string {
	return s.cfg.TitleLabel + " " + t.Format(titleTimeLayout)
}

// Assemble creates a new playlist owned by the current user holding tracks
// in order
func (s *Porter) Assemble(ctx context.Context, tracks []playlist.ResolvedTrack) (playlist.Playlist, error) {
	log := logging.From(ctx, logging.WithComponent("porter"))

	owner, err := s.sink.CurrentUserID(ctx)
	if err != nil {
		return playlist.Playlist{}, fmt.Errorf("error getting current user: %w", err)
	}

	created := s.now()
	pl, err := s.sink.CreatePlaylist(ctx, owner, s.Title(created), s.cfg.Description, s.cfg.Public)
	if err != nil {
		return playlist.Playlist{}, fmt.Errorf("error creating playlist: %w", err)
	}

	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		uris = append(uris, t.URI)
	}
	if err := s.sink.AddTracks(ctx, pl.ID, uris); err != nil {
		return playlist.Playlist{}, fmt.Errorf("error adding tracks to playlist %s: %w", pl.ID, err)
	}

	pl.TrackCount = len(uris)
	pl.CreatedAt = created
	log.Info().Str("playlist_id", pl.ID).Str("name", pl.Name).Int("tracks", pl.TrackCount).Msg("playlist created")
	return pl, nil
}

// ExportCSV writes rows to filepath, adding a .csv extension when missing,
// and returns the path written
func ExportCSV[T any](filepath string, rows []T) (string, error) {
	if !strings.HasSuffix(filepath, ".csv") {
		filepath += ".csv"
	}
	if err := utils.WriteCsvFile(filepath, rows); err != nil {
		return "", fmt.Errorf("error writing CSV file: %w", err)
	}
	return filepath, nil
}
