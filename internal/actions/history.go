package actions

import (
	"discovernow/internal/playlist"
	"discovernow/internal/porter"
	"fmt"

	"github.com/urfave/cli/v2"
)

// History prints past recommendations, newest first
func History(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	history := rt.backend.Recommendations()
	var records []playlist.RecommendationRecord
	if artist := c.String("artist"); artist != "" {
		records, err = history.ForArtist(c.Context, artist)
	} else {
		records, err = history.List(c.Context)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if limit := c.Int("limit"); limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	if dest := c.String("csv"); dest != "" {
		path, err := porter.ExportCSV(dest, records)
		if err != nil {
			return err
		}
		fmt.Fprintf(rt.out, "Saved %d recommendations to %s\n", len(records), path)
		return nil
	}

	if len(records) == 0 {
		fmt.Fprintln(rt.out, "Nothing recommended yet")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(rt.out, "%s\t%s - %s\t%s\n", r.DateAdded.Format("2006-01-02"), r.Artist, r.Name, r.URI)
	}
	return nil
}
