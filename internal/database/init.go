package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"taggivm/internal/catalog"
	"taggivm/internal/database/migrations"
	"taggivm/internal/database/seed"
	"taggivm/internal/model"
)

// Initialize creates a new catalog database at path, applies the schema and
// writes the static reference data. An existing file is never touched.
// If any step fails the partially created file is removed and the returned
// error is a *catalog.InitializationError.
func Initialize(path string, data *seed.StaticData, clock catalog.Clock) (_ *SQLiteDatabase, err error) {
	fail := func(err error) error {
		return &catalog.InitializationError{Path: path, Err: err}
	}

	if path != MemoryPath {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fail(catalog.ErrDatabaseExists)
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return nil, fail(fmt.Errorf("checking database file: %w", statErr))
		}
		if mkErr := os.MkdirAll(filepath.Dir(path), 0755); mkErr != nil {
			return nil, fail(fmt.Errorf("creating database directory: %w", mkErr))
		}
	}

	conn, err := OpenConnection(path)
	if err != nil {
		if path != MemoryPath {
			RemoveDatabaseFiles(path)
		}
		return nil, fail(err)
	}

	defer func() {
		if err == nil {
			return
		}
		conn.Close()
		if path != MemoryPath {
			RemoveDatabaseFiles(path)
		}
	}()

	if err := Prepare(conn, data); err != nil {
		return nil, fail(err)
	}
	return NewSQLiteDatabaseFromDB(conn, path, clock), nil
}

// Prepare applies all migrations and seeds the static data into db.
// Both steps are idempotent.
func Prepare(db *sql.DB, data *seed.StaticData) error {
	if err := migrations.MigrateUp(db); err != nil {
		return err
	}
	if data == nil {
		return errors.New("no static data to seed")
	}
	return SeedStaticData(db, data)
}

// SeedStaticData inserts the genre tree and sources in one transaction.
// Genres are inserted depth first so each child references the id of its
// already-inserted parent; top-level genres sit under model.RootGenreID.
// Rows that already exist are left alone.
func SeedStaticData(db *sql.DB, data *seed.StaticData) error {
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting seed transaction: %w", err)
	}
	defer tx.Rollback()

	q := NewQueries(tx)

	if err := seedGenres(ctx, q, data.Genres, model.RootGenreID); err != nil {
		return err
	}
	for _, s := range data.Sources {
		if err := q.InsertSourceIfAbsent(ctx, s.Name, s.BaseURL); err != nil {
			return fmt.Errorf("inserting source %q: %w", s.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}
	return nil
}

func seedGenres(ctx context.Context, q *Queries, nodes []seed.GenreNode, parentID int64) error {
	for _, node := range nodes {
		if err := q.InsertGenreIfAbsent(ctx, node.Name, parentID); err != nil {
			return fmt.Errorf("inserting genre %q: %w", node.Name, err)
		}
		id, err := q.GetGenreID(ctx, node.Name, parentID)
		if err != nil {
			return fmt.Errorf("looking up genre %q: %w", node.Name, err)
		}
		if err := seedGenres(ctx, q, node.Children, id); err != nil {
			return err
		}
	}
	return nil
}

// RemoveDatabaseFiles deletes a database file together with its WAL and
// shared-memory files. Missing files are ignored.
func RemoveDatabaseFiles(path string) error {
	var errs []error
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
