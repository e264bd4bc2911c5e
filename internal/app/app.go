package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"taggivm/internal/catalog"
	"taggivm/internal/config"
	"taggivm/internal/database"
	"taggivm/internal/database/seed"
	"taggivm/internal/fs"
	"taggivm/internal/model"
)

// ErrInitAborted is returned when the user declines to replace an existing database.
var ErrInitAborted = errors.New("initialization aborted")

// ErrVolatileDatabase is returned by Scan when a real run targets an in-memory
// database. Its rows vanish on exit while the folder markers would remain.
var ErrVolatileDatabase = errors.New("in-memory database cannot record a scan; use --dry-run or a sqlite database")

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) (bool, error)

// TaggivmApp is the application layer between the CLI and CatalogService.
// It constructs all dependencies from config, exposes high-level operations,
// and manages the DB lifecycle on Close.
type TaggivmApp struct {
	cfg     *config.Config
	db      catalog.Database
	fsmgr   catalog.FilesystemManager
	service *catalog.CatalogService
	logger  *slog.Logger
	logFile *os.File
	opID    string
}

// NewTaggivmApp creates a fully wired TaggivmApp from the given config.
// The database must already exist and be at the latest schema version.
// verbose sends debug logs to stderr as well as the log file.
// The caller must call Close when done.
func NewTaggivmApp(cfg *config.Config, verbose bool) (*TaggivmApp, error) {
	return newTaggivmApp(cfg, verbose, catalog.RealClock{}, catalog.UUIDGenerator{})
}

func newTaggivmApp(cfg *config.Config, verbose bool, clock catalog.Clock, ids catalog.IDGenerator) (*TaggivmApp, error) {
	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore)

	db, err := database.NewDatabaseFromConfig(cfg.Database, clock)
	if errors.Is(err, catalog.ErrDatabaseNotFound) {
		return nil, fmt.Errorf("%w: run 'taggivm init' first", err)
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	opID := ids.New()
	logger, logFile, err := newLogger(cfg.LogDir, opID, stderrLevel(verbose))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := catalog.NewCatalogService(db, fsmgr, &slogAdapter{l: logger}, cfg.MarkerName)

	return &TaggivmApp{
		cfg:     cfg,
		db:      db,
		fsmgr:   fsmgr,
		service: svc,
		logger:  logger,
		logFile: logFile,
		opID:    opID,
	}, nil
}

func stderrLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelError
}

// OperationID returns the id tagging this invocation's log lines. For a
// scan it is also the ingest run id.
func (a *TaggivmApp) OperationID() string {
	return a.opID
}

// Scan discovers album folders under the configured music directory and,
// unless dryRun is set, ingests them. Real runs are recorded as an ingest run
// whose status reflects the report, and need a database that outlives the process.
func (a *TaggivmApp) Scan(dryRun bool) (*catalog.IngestReport, error) {
	if !dryRun && a.cfg.Database.Type == "memory" {
		return nil, ErrVolatileDatabase
	}

	root, err := a.fsmgr.Resolve(a.cfg.MusicDir)
	if err != nil {
		return nil, fmt.Errorf("resolving music directory: %w", err)
	}

	op := NewScanOperation(a.opID, dryRun)
	if !dryRun {
		run, err := a.db.CreateIngestRun(op.RunID)
		if err != nil {
			return nil, fmt.Errorf("recording ingest run: %w", err)
		}
		op.Run = run
	}

	a.logger.Info("scan started", "root", root.String(), "dry_run", dryRun)
	report, err := a.service.Scan(root, dryRun)
	op.Complete(report, err)

	if op.Persisted() {
		if ferr := a.db.FinishIngestRun(op.Run); ferr != nil {
			err = errors.Join(err, fmt.Errorf("finishing ingest run: %w", ferr))
		}
		a.logger.Info("scan finished", "status", op.Run.Status)
	}
	return report, err
}

// GetHistory returns the most recent ingest runs.
func (a *TaggivmApp) GetHistory(limit int) ([]*model.IngestRun, error) {
	return a.service.GetHistory(limit)
}

// GetGenreTree returns the seeded genre taxonomy.
func (a *TaggivmApp) GetGenreTree() ([]*catalog.GenreNode, error) {
	return a.service.GetGenreTree()
}

// GetSources returns the seeded metadata sources.
func (a *TaggivmApp) GetSources() ([]*model.Source, error) {
	return a.service.GetSources()
}

// ListAlbums returns catalogued albums. status may be empty, "pending" or "complete".
func (a *TaggivmApp) ListAlbums(status string) ([]*model.Album, error) {
	return a.service.ListAlbums(model.MetadataStatus(status))
}

// Close closes the database and the log file, returning the first error.
func (a *TaggivmApp) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}

// InitDatabase creates and seeds the catalog database described by cfg.
// An existing database file is replaced only when force is set or confirm
// agrees; confirm may be nil, in which case force is required.
func InitDatabase(cfg *config.Config, force bool, confirm ConfirmFunc) error {
	logger, logFile, err := newLogger(cfg.LogDir, catalog.UUIDGenerator{}.New(), slog.LevelError)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logFile.Close()

	if cfg.Database.Type != "memory" {
		if err := clearExisting(cfg.Database.Path, force, confirm); err != nil {
			return err
		}
	}

	data, err := seed.Default()
	if err != nil {
		return &catalog.InitializationError{Path: cfg.Database.Path, Err: err}
	}

	db, err := database.InitializeFromConfig(cfg.Database, data, catalog.RealClock{})
	if err != nil {
		logger.Error("database initialization failed", "path", cfg.Database.Path, "error", err)
		return err
	}
	logger.Info("database initialized", "path", cfg.Database.Path,
		"genres", data.GenreCount(), "sources", len(data.Sources))

	return db.Close()
}

func clearExisting(path string, force bool, confirm ConfirmFunc) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("checking database file: %w", err)
	}

	if !force {
		if confirm == nil {
			return fmt.Errorf("database exists at %s: use --force to replace it", path)
		}
		ok, err := confirm(fmt.Sprintf("Replace existing database at %s?", path))
		if errors.Is(err, ErrNotInteractive) {
			return fmt.Errorf("database exists at %s: use --force to replace it", path)
		}
		if err != nil {
			return err
		}
		if !ok {
			return ErrInitAborted
		}
	}

	if err := database.RemoveDatabaseFiles(path); err != nil {
		return fmt.Errorf("removing existing database: %w", err)
	}
	return nil
}
