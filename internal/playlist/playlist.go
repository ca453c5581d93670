package playlist

import "time"

// SeedTrack is a track sampled from the listener's library or a source playlist
type SeedTrack struct {
	Name    string
	Artists []string
}

// CandidateArtist is an artist suggested by the similarity service
type CandidateArtist struct {
	Name string
}

// ArtistRecord is an artist as known by the target catalog
type ArtistRecord struct {
	ID   string
	Name string
}

// CatalogTrack is a ranked top track of a catalog artist
type CatalogTrack struct {
	Name        string
	URI         string
	PreviewURL  string
	ExternalURL string
	Artists     []string
}

// ResolvedTrack is a playable track chosen for a candidate artist
type ResolvedTrack struct {
	Artist      string `csv:"artist" json:"artist"`
	Name        string `csv:"name" json:"name"`
	PreviewURL  string `csv:"preview_url" json:"previewUrl,omitempty"`
	ExternalURL string `csv:"external_url" json:"externalUrl"`
	URI         string `csv:"uri" json:"uri"`
}

// Page is one page of a source catalog together with the reported total
type Page struct {
	Items []SeedTrack
	Total int
}

// Playlist represents a playlist created in the target catalog
type Playlist struct {
	ID          string
	Name        string
	Description string
	URL         string
	TrackCount  int
	CreatedAt   time.Time
}

// RecommendationRecord is the durable trace of a recommended track
type RecommendationRecord struct {
	URI       string    `csv:"uri" json:"uri"`
	Name      string    `csv:"name" json:"name"`
	Artist    string    `csv:"artist" json:"artist"`
	DateAdded time.Time `csv:"date_added" json:"dateAdded"`
}

// BlacklistRecord is an artist the listener never wants recommended
type BlacklistRecord struct {
	Name            string    `json:"name"`
	DateBlacklisted time.Time `json:"dateBlacklisted"`
}
