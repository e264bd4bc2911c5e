package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"taggivm/internal/catalog"
	"taggivm/internal/database/migrations"
	"taggivm/internal/model"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// connectionParams are applied to every connection by the sqlite3 driver.
// WAL with synchronous=NORMAL can lose the last commits on power loss but
// never corrupts the file.
const connectionParams = "_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"

// SQLiteDatabase implements catalog.Database using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *Queries
	path    string
	clock   catalog.Clock
}

// NewSQLiteDatabase opens an existing catalog database.
// path can be a file path or MemoryPath. A nil clock uses the real clock.
func NewSQLiteDatabase(path string, clock catalog.Clock) (*SQLiteDatabase, error) {
	if path != MemoryPath {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", catalog.ErrDatabaseNotFound, path)
			}
			return nil, fmt.Errorf("checking database file: %w", err)
		}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteDatabaseFromDB(db, path, clock), nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB, path string, clock catalog.Clock) *SQLiteDatabase {
	if clock == nil {
		clock = catalog.RealClock{}
	}
	return &SQLiteDatabase{
		db:      db,
		queries: NewQueries(db),
		path:    path,
		clock:   clock,
	}
}

// OpenConnection opens a SQLite connection with foreign keys enforced, WAL
// journaling and NORMAL sync. The pool is limited to one connection: the
// catalog has a single writer, and an in-memory database exists per connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?"+connectionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Album operations

// PersistAlbum stores the album, its artist (if new) and all of its tracks in
// a single transaction. On success the ids and timestamps are also written
// back into album and its tracklist.
func (s *SQLiteDatabase) PersistAlbum(album *model.Album) (int64, error) {
	if len(album.Tracklist) == 0 {
		return 0, &catalog.PersistenceError{Kind: catalog.EmptyTracklist, Path: album.Path}
	}
	for _, t := range album.Tracklist {
		if !isWithin(album.Path, t.Path) {
			return 0, &catalog.PersistenceError{
				Kind: catalog.ConstraintViolation,
				Path: album.Path,
				Err:  fmt.Errorf("track %s is outside the album folder", t.Path),
			}
		}
	}

	ctx := context.Background()
	now := s.clock.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &catalog.PersistenceError{
			Kind: catalog.StorageUnavailable,
			Path: album.Path,
			Err:  fmt.Errorf("starting transaction: %w", err),
		}
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	artistID, err := findOrCreateArtist(ctx, qtx, album.AlbumArtist, now)
	if err != nil {
		return 0, persistenceError(album.Path, fmt.Errorf("resolving artist %q: %w", album.AlbumArtist, err))
	}

	albumID, err := qtx.InsertAlbum(ctx, InsertAlbumParams{
		ArtistID:       artistID,
		Title:          album.Title,
		ReleaseYear:    album.ReleaseYear,
		AlbumArtist:    album.AlbumArtist,
		TotalTracks:    len(album.Tracklist),
		Path:           album.Path,
		MetadataStatus: model.MetadataPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return 0, persistenceError(album.Path, fmt.Errorf("inserting album: %w", err))
	}

	trackIDs := make([]int64, len(album.Tracklist))
	for i, t := range album.Tracklist {
		id, err := qtx.InsertTrack(ctx, InsertTrackParams{
			AlbumID:     albumID,
			Title:       t.Title,
			Path:        t.Path,
			DurationMS:  t.DurationMS,
			Fingerprint: t.Fingerprint,
			TrackNumber: t.TrackNumber,
			DiscNumber:  t.DiscNumber,
			Format:      t.Format,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return 0, persistenceError(album.Path, fmt.Errorf("inserting track %s: %w", t.Path, err))
		}
		trackIDs[i] = id
	}

	if err := tx.Commit(); err != nil {
		return 0, persistenceError(album.Path, fmt.Errorf("committing transaction: %w", err))
	}

	album.ID = albumID
	album.ArtistID = artistID
	album.TotalTracks = len(album.Tracklist)
	album.MetadataStatus = model.MetadataPending
	album.CreatedAt, album.UpdatedAt = now, now
	for i := range album.Tracklist {
		t := &album.Tracklist[i]
		t.ID, t.AlbumID = trackIDs[i], albumID
		t.CreatedAt, t.UpdatedAt = now, now
	}
	return albumID, nil
}

// findOrCreateArtist returns the id of the artist with exactly this name,
// creating the row if needed.
func findOrCreateArtist(ctx context.Context, q *Queries, name string, now time.Time) (int64, error) {
	id, err := q.GetArtistIDByName(ctx, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return q.InsertArtist(ctx, name, now)
}

func (s *SQLiteDatabase) FindAlbumByPath(path string) (*model.Album, error) {
	album, err := s.queries.GetAlbumByPath(context.Background(), path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding album by path: %w", err)
	}
	return &album, nil
}

func (s *SQLiteDatabase) ListAlbums(status model.MetadataStatus) ([]*model.Album, error) {
	albums, err := s.queries.ListAlbums(context.Background(), status)
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	return toPointers(albums), nil
}

func (s *SQLiteDatabase) FindTracksByAlbum(albumID int64) ([]*model.Track, error) {
	tracks, err := s.queries.GetTracksByAlbumID(context.Background(), albumID)
	if err != nil {
		return nil, fmt.Errorf("finding tracks by album: %w", err)
	}
	return toPointers(tracks), nil
}

// Static data

func (s *SQLiteDatabase) ListGenres() ([]*model.Genre, error) {
	genres, err := s.queries.ListGenres(context.Background())
	if err != nil {
		return nil, fmt.Errorf("listing genres: %w", err)
	}
	return toPointers(genres), nil
}

func (s *SQLiteDatabase) ListSources() ([]*model.Source, error) {
	sources, err := s.queries.ListSources(context.Background())
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return toPointers(sources), nil
}

// Ingest run tracking

func (s *SQLiteDatabase) CreateIngestRun(runID string) (*model.IngestRun, error) {
	startedAt := s.clock.Now()
	id, err := s.queries.InsertIngestRun(context.Background(), runID, startedAt, "running")
	if err != nil {
		return nil, fmt.Errorf("creating ingest run: %w", err)
	}
	return &model.IngestRun{
		ID:        id,
		RunID:     runID,
		StartedAt: startedAt,
		Status:    "running",
	}, nil
}

func (s *SQLiteDatabase) FinishIngestRun(run *model.IngestRun) error {
	finishedAt := s.clock.Now()
	n, err := s.queries.UpdateIngestRunFinished(context.Background(), UpdateIngestRunFinishedParams{
		FinishedAt:     finishedAt,
		Status:         run.Status,
		AlbumsIngested: run.AlbumsIngested,
		AlbumsFailed:   run.AlbumsFailed,
		FoldersSkipped: run.FoldersSkipped,
		ID:             run.ID,
	})
	if err != nil {
		return fmt.Errorf("finishing ingest run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finishing ingest run: no run with id %d", run.ID)
	}
	run.FinishedAt = sql.NullTime{Time: finishedAt, Valid: true}
	return nil
}

func (s *SQLiteDatabase) ListIngestRuns(limit int) ([]*model.IngestRun, error) {
	runs, err := s.queries.GetIngestRuns(context.Background(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing ingest runs: %w", err)
	}
	return toPointers(runs), nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// persistenceError classifies a failed write by its SQLite result code.
func persistenceError(path string, err error) *catalog.PersistenceError {
	kind := catalog.StorageUnavailable
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		kind = catalog.ConstraintViolation
	}
	return &catalog.PersistenceError{Kind: kind, Path: path, Err: err}
}

// isWithin reports whether path lies strictly inside dir.
func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func toPointers[T any](items []T) []*T {
	result := make([]*T, len(items))
	for i := range items {
		result[i] = &items[i]
	}
	return result
}

// Compile-time check that SQLiteDatabase implements catalog.Database interface
var _ catalog.Database = (*SQLiteDatabase)(nil)
