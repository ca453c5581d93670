package adapters

import (
	"context"
	"discovernow/internal/config"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	defaultLastFMURL = "https://ws.audioscrobbler.com/2.0/"
	// lastFMInvalidArtist is the Last.fm error code for an unknown artist
	lastFMInvalidArtist = 6
)

// LastFMAdapter is a SimilarityService backed by Last.fm's artist.getsimilar
type LastFMAdapter struct {
	BaseAdapter
	apiKey  string
	baseURL string
	limit   int
	http    *http.Client
}

// NewLastFMAdapter creates a LastFMAdapter. A nil httpClient uses a default
// client.
func NewLastFMAdapter(cfg config.LastFMConfig, resilience config.ResilienceConfig, httpClient *http.Client) (*LastFMAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("lastfm api key must be provided")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultLastFMURL
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 50
	}

	return &LastFMAdapter{
		BaseAdapter: NewBaseAdapter("lastfm", resilience),
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		limit:       limit,
		http:        httpClient,
	}, nil
}

type lastFMSimilarResponse struct {
	SimilarArtists struct {
		Artist []struct {
			Name  string `json:"name"`
			Match string `json:"match"`
		} `json:"artist"`
	} `json:"similarartists"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// SimilarArtists returns up to the configured limit of similar artists, most
// similar first. Unknown artists yield ErrArtistNotFound.
func (a *LastFMAdapter) SimilarArtists(ctx context.Context, artist string) ([]string, error) {
	resp, err := call(ctx, &a.BaseAdapter, "similar artists", func(ctx context.Context) (*lastFMSimilarResponse, error) {
		return a.getSimilar(ctx, artist)
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.SimilarArtists.Artist))
	for _, s := range resp.SimilarArtists.Artist {
		if name := strings.TrimSpace(s.Name); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (a *LastFMAdapter) getSimilar(ctx context.Context, artist string) (*lastFMSimilarResponse, error) {
	q := url.Values{}
	q.Set("method", "artist.getsimilar")
	q.Set("artist", artist)
	q.Set("api_key", a.apiKey)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(a.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	res, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request similar artists: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out lastFMSimilarResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if res.StatusCode >= 300 {
			return nil, fmt.Errorf("lastfm returned status %d", res.StatusCode)
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error == lastFMInvalidArtist {
		return nil, fmt.Errorf("%w: %s", ErrArtistNotFound, artist)
	}
	if out.Error != 0 {
		return nil, fmt.Errorf("lastfm error %d: %s", out.Error, out.Message)
	}
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("lastfm returned status %d", res.StatusCode)
	}
	return &out, nil
}
