package catalog

import "taggivm/internal/model"

// Database provides an interface for catalog storage operations.
// All methods should be implemented with appropriate transaction handling.
type Database interface {
	// Album operations

	// PersistAlbum stores an album aggregate and its tracks in one transaction
	// and returns the new album id. Errors are *PersistenceError.
	PersistAlbum(album *model.Album) (int64, error)

	// FindAlbumByPath returns the album stored for a folder, or nil if there is none.
	FindAlbumByPath(path string) (*model.Album, error)

	// ListAlbums returns albums ordered by artist then year. An empty status lists all.
	ListAlbums(status model.MetadataStatus) ([]*model.Album, error)

	// FindTracksByAlbum returns the tracks of an album ordered by path.
	FindTracksByAlbum(albumID int64) ([]*model.Track, error)

	// Static data

	// ListGenres returns every genre except the synthetic root, ordered by id.
	ListGenres() ([]*model.Genre, error)

	// ListSources returns the metadata sources ordered by name.
	ListSources() ([]*model.Source, error)

	// Ingest run tracking

	// CreateIngestRun records the start of a scan.
	CreateIngestRun(runID string) (*model.IngestRun, error)

	// FinishIngestRun stores the final status and counters of a run.
	FinishIngestRun(run *model.IngestRun) error

	// ListIngestRuns returns the most recent runs, newest first.
	ListIngestRuns(limit int) ([]*model.IngestRun, error)

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error

	// Close closes the database connection.
	Close() error
}
