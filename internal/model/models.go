package model

import (
	"database/sql"
	"time"
)

// RootGenreID is the parent id shared by all top-level genres.
// The schema carries a synthetic genre row with this id so parent_id is never NULL.
const RootGenreID int64 = 0

// MetadataStatus tracks whether an album has been enriched beyond what the scan derives.
type MetadataStatus string

const (
	MetadataPending  MetadataStatus = "pending"
	MetadataComplete MetadataStatus = "complete"
)

// Valid reports whether s is a known status.
func (s MetadataStatus) Valid() bool {
	return s == MetadataPending || s == MetadataComplete
}

// Genre is a node in the genre taxonomy.
type Genre struct {
	ID       int64
	Name     string
	ParentID int64 // RootGenreID for top-level genres
}

// IsRoot reports whether g sits directly under the synthetic root.
func (g *Genre) IsRoot() bool {
	return g.ParentID == RootGenreID
}

// Source is an external metadata provider.
type Source struct {
	ID      int64
	Name    string
	BaseURL string
}

// Artist is deduplicated by exact name.
type Artist struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Album is a catalogued album folder. Before persistence it is an aggregate:
// ID, ArtistID and the timestamps are zero and Tracklist holds the planned tracks.
type Album struct {
	ID             int64
	ArtistID       int64
	Title          string
	ReleaseYear    string
	AlbumArtist    string
	TotalTracks    int
	Path           string // absolute
	MetadataStatus MetadataStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Tracklist []Track
}

// Track is a single audio file within an album folder.
type Track struct {
	ID          int64
	AlbumID     int64
	Title       string
	Path        string // absolute, under the album path
	DurationMS  int64
	Fingerprint string
	TrackNumber int
	DiscNumber  int
	Format      string // lowercased extension without the dot
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IngestRun records one scan invocation that wrote to the database.
type IngestRun struct {
	ID             int64
	RunID          string // UUID, also used as the log operation id
	StartedAt      time.Time
	FinishedAt     sql.NullTime
	Status         string // "running", "success", "partial" or "error"
	AlbumsIngested int
	AlbumsFailed   int
	FoldersSkipped int
}
