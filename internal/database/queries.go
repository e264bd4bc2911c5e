package database

import (
	"context"
	"database/sql"
	"time"

	"taggivm/internal/model"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the SQL statements used by SQLiteDatabase.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Genres

const insertGenreIfAbsent = `INSERT OR IGNORE INTO genres (name, parent_id) VALUES (?, ?)`

func (q *Queries) InsertGenreIfAbsent(ctx context.Context, name string, parentID int64) error {
	_, err := q.db.ExecContext(ctx, insertGenreIfAbsent, name, parentID)
	return err
}

const getGenreID = `SELECT id FROM genres WHERE name = ? AND parent_id = ?`

func (q *Queries) GetGenreID(ctx context.Context, name string, parentID int64) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, getGenreID, name, parentID).Scan(&id)
	return id, err
}

const listGenres = `SELECT id, name, parent_id FROM genres WHERE id != 0 ORDER BY id`

func (q *Queries) ListGenres(ctx context.Context) ([]model.Genre, error) {
	rows, err := q.db.QueryContext(ctx, listGenres)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Genre
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.ParentID); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

// Sources

const insertSourceIfAbsent = `INSERT OR IGNORE INTO sources (name, base_url) VALUES (?, ?)`

func (q *Queries) InsertSourceIfAbsent(ctx context.Context, name, baseURL string) error {
	_, err := q.db.ExecContext(ctx, insertSourceIfAbsent, name, baseURL)
	return err
}

const listSources = `SELECT id, name, base_url FROM sources ORDER BY name`

func (q *Queries) ListSources(ctx context.Context) ([]model.Source, error) {
	rows, err := q.db.QueryContext(ctx, listSources)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Source
	for rows.Next() {
		var s model.Source
		if err := rows.Scan(&s.ID, &s.Name, &s.BaseURL); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// Artists

const getArtistIDByName = `SELECT id FROM artists WHERE name = ?`

func (q *Queries) GetArtistIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, getArtistIDByName, name).Scan(&id)
	return id, err
}

const insertArtist = `INSERT INTO artists (name, created_at) VALUES (?, ?)`

func (q *Queries) InsertArtist(ctx context.Context, name string, createdAt time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertArtist, name, createdAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Albums

const insertAlbum = `
INSERT INTO albums (artist_id, title, release_year, album_artist, total_tracks, path, metadata_status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type InsertAlbumParams struct {
	ArtistID       int64
	Title          string
	ReleaseYear    string
	AlbumArtist    string
	TotalTracks    int
	Path           string
	MetadataStatus model.MetadataStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (q *Queries) InsertAlbum(ctx context.Context, arg InsertAlbumParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertAlbum,
		arg.ArtistID,
		arg.Title,
		arg.ReleaseYear,
		arg.AlbumArtist,
		arg.TotalTracks,
		arg.Path,
		string(arg.MetadataStatus),
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const albumColumns = `id, artist_id, title, release_year, album_artist, total_tracks, path, metadata_status, created_at, updated_at`

const getAlbumByPath = `SELECT ` + albumColumns + ` FROM albums WHERE path = ?`

func (q *Queries) GetAlbumByPath(ctx context.Context, path string) (model.Album, error) {
	return scanAlbum(q.db.QueryRowContext(ctx, getAlbumByPath, path))
}

const listAlbums = `SELECT ` + albumColumns + ` FROM albums ORDER BY album_artist, release_year, title`

const listAlbumsByStatus = `SELECT ` + albumColumns + ` FROM albums WHERE metadata_status = ? ORDER BY album_artist, release_year, title`

func (q *Queries) ListAlbums(ctx context.Context, status model.MetadataStatus) ([]model.Album, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = q.db.QueryContext(ctx, listAlbums)
	} else {
		rows, err = q.db.QueryContext(ctx, listAlbumsByStatus, string(status))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlbum(row rowScanner) (model.Album, error) {
	var a model.Album
	var status string
	err := row.Scan(
		&a.ID,
		&a.ArtistID,
		&a.Title,
		&a.ReleaseYear,
		&a.AlbumArtist,
		&a.TotalTracks,
		&a.Path,
		&status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	a.MetadataStatus = model.MetadataStatus(status)
	return a, err
}

// Tracks

const insertTrack = `
INSERT INTO tracks (album_id, title, path, duration_ms, fingerprint, track_number, disc_number, format, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type InsertTrackParams struct {
	AlbumID     int64
	Title       string
	Path        string
	DurationMS  int64
	Fingerprint string
	TrackNumber int
	DiscNumber  int
	Format      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *Queries) InsertTrack(ctx context.Context, arg InsertTrackParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertTrack,
		arg.AlbumID,
		arg.Title,
		arg.Path,
		arg.DurationMS,
		arg.Fingerprint,
		arg.TrackNumber,
		arg.DiscNumber,
		arg.Format,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getTracksByAlbumID = `
SELECT id, album_id, title, path, duration_ms, fingerprint, track_number, disc_number, format, created_at, updated_at
FROM tracks WHERE album_id = ? ORDER BY path`

func (q *Queries) GetTracksByAlbumID(ctx context.Context, albumID int64) ([]model.Track, error) {
	rows, err := q.db.QueryContext(ctx, getTracksByAlbumID, albumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Track
	for rows.Next() {
		var t model.Track
		if err := rows.Scan(
			&t.ID,
			&t.AlbumID,
			&t.Title,
			&t.Path,
			&t.DurationMS,
			&t.Fingerprint,
			&t.TrackNumber,
			&t.DiscNumber,
			&t.Format,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// Ingest runs

const insertIngestRun = `INSERT INTO ingest_runs (run_id, started_at, status) VALUES (?, ?, ?)`

func (q *Queries) InsertIngestRun(ctx context.Context, runID string, startedAt time.Time, status string) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertIngestRun, runID, startedAt, status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const updateIngestRunFinished = `
UPDATE ingest_runs
SET finished_at = ?, status = ?, albums_ingested = ?, albums_failed = ?, folders_skipped = ?
WHERE id = ?`

type UpdateIngestRunFinishedParams struct {
	FinishedAt     time.Time
	Status         string
	AlbumsIngested int
	AlbumsFailed   int
	FoldersSkipped int
	ID             int64
}

func (q *Queries) UpdateIngestRunFinished(ctx context.Context, arg UpdateIngestRunFinishedParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateIngestRunFinished,
		arg.FinishedAt,
		arg.Status,
		arg.AlbumsIngested,
		arg.AlbumsFailed,
		arg.FoldersSkipped,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getIngestRuns = `
SELECT id, run_id, started_at, finished_at, status, albums_ingested, albums_failed, folders_skipped
FROM ingest_runs ORDER BY id DESC LIMIT ?`

func (q *Queries) GetIngestRuns(ctx context.Context, limit int64) ([]model.IngestRun, error) {
	rows, err := q.db.QueryContext(ctx, getIngestRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.IngestRun
	for rows.Next() {
		var r model.IngestRun
		if err := rows.Scan(
			&r.ID,
			&r.RunID,
			&r.StartedAt,
			&r.FinishedAt,
			&r.Status,
			&r.AlbumsIngested,
			&r.AlbumsFailed,
			&r.FoldersSkipped,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
