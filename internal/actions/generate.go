package actions

import (
	"context"
	"discovernow/internal/config"
	"discovernow/internal/porter"
	"discovernow/internal/recommend"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/urfave/cli/v2"
)

// Generate runs the recommendation pipeline and creates the playlist
func Generate(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	strategy := c.String("strategy")
	if strategy == "" && c.String("playlist") == "" && !c.Bool("yes") {
		strategy = rt.cfg.Recommend.Strategy
		if err := huh.NewSelect[string]().
			Title("Choose how to sample your library").
			Options(strategyOptions()...).
			Value(&strategy).
			Run(); err != nil {
			return err
		}
	}

	provider, spotify, err := rt.spotify()
	if err != nil {
		return err
	}
	similar, err := rt.similarity(spotify)
	if err != nil {
		return err
	}

	pipeline := recommend.NewPipeline(recommend.Deps{
		Auth:       provider,
		Sources:    spotify,
		Similarity: similar,
		Catalog:    spotify,
		History:    rt.backend.Recommendations(),
		Blacklist:  rt.backend.Blacklist(),
		Assembler:  porter.NewPorter(spotify, rt.cfg.Playlist),
	}, pipelineOptions(rt.cfg))

	req := recommend.Request{Playlist: c.String("playlist")}
	if strategy != "" {
		req.Strategy = recommend.ParseStrategy(strategy)
	}

	var result *recommend.Result
	run := func(ctx context.Context) error {
		var err error
		result, err = pipeline.Generate(ctx, req)
		return err
	}
	if err := spinner.New().Title("Finding new music...").Context(c.Context).ActionWithErr(run).Run(); err != nil {
		return err
	}

	printResult(rt.out, result)

	if dest := c.String("csv"); dest != "" && len(result.Tracks) > 0 {
		path, err := porter.ExportCSV(dest, result.Tracks)
		if err != nil {
			return err
		}
		fmt.Fprintf(rt.out, "Saved track list to %s\n", path)
	}
	return nil
}

func strategyOptions() []huh.Option[string] {
	labels := map[recommend.Strategy]string{
		recommend.StrategyRecent:      "Recent (newest 30% of your library)",
		recommend.StrategySuperRecent: "Super recent (your last 70 saves)",
		recommend.StrategyHalfAndHalf: "Half and half (recent and older)",
		recommend.StrategyAllRandom:   "All random (whole library)",
	}
	strategies := recommend.Strategies()
	options := make([]huh.Option[string], len(strategies))
	for i, s := range strategies {
		options[i] = huh.NewOption(labels[s], string(s))
	}
	return options
}

func pipelineOptions(cfg *config.Config) recommend.Options {
	rc := cfg.Recommend
	return recommend.Options{
		Strategy:      recommend.ParseStrategy(rc.Strategy),
		MaxSamples:    rc.MaxSamples,
		PageSize:      rc.LibraryPageSize,
		TargetArtists: rc.TargetArtists,
		TargetTracks:  rc.TargetTracks,
		MaxAttempts:   rc.MaxAttempts,
		Resolver: recommend.ResolverOptions{
			SearchLimit:    rc.SearchLimit,
			MatchThreshold: rc.MatchThreshold,
			TopTrackScan:   rc.TopTrackScan,
			MaxPerArtist:   rc.MaxPerArtist,
		},
	}
}

func printResult(w io.Writer, res *recommend.Result) {
	if res == nil || len(res.Tracks) == 0 {
		fmt.Fprintln(w, "No new tracks found this time. Try another strategy or a larger library.")
		return
	}

	switch {
	case res.Playlist != nil:
		fmt.Fprintf(w, "Created %q with %d tracks:\n%s\n\n", res.Playlist.Name, len(res.Tracks), res.PlaylistURL)
	case res.PlaylistErr != nil:
		fmt.Fprintf(w, "Found %d tracks but could not create the playlist: %v\n\n", len(res.Tracks), res.PlaylistErr)
	}
	for i, t := range res.Tracks {
		fmt.Fprintf(w, "%2d. %s - %s\n", i+1, t.Artist, t.Name)
	}
	fmt.Fprintf(w, "\n%d seeds, %d candidate artists, %s\n", res.Seeds, res.Candidates, res.Duration.Round(time.Millisecond))
}
