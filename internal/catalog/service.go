package catalog

import (
	"fmt"
	"sort"

	"taggivm/internal/model"
)

// CatalogService is the orchestration layer that runs the scan pipeline:
// discovery, planning, persistence and marking of ingested folders.
type CatalogService struct {
	database Database
	fsmgr    FilesystemManager
	logger   Logger
	marker   string
}

// NewCatalogService creates a new CatalogService with the provided dependencies.
// An empty marker selects DefaultMarkerName.
func NewCatalogService(database Database, fsmgr FilesystemManager, logger Logger, marker string) *CatalogService {
	if logger == nil {
		logger = NewNopLogger()
	}
	if marker == "" {
		marker = DefaultMarkerName
	}
	return &CatalogService{
		database: database,
		fsmgr:    fsmgr,
		logger:   logger,
		marker:   marker,
	}
}

// AlbumResult is the outcome of ingesting a single album folder.
type AlbumResult struct {
	Artist  string
	Folder  string
	Path    string
	AlbumID int64 // zero unless the album was persisted
	Tracks  int
	Err     error
}

// IngestReport summarizes a batch ingestion.
type IngestReport struct {
	Results []AlbumResult
	Skipped []Diagnostic
}

// Succeeded returns the results whose album was persisted.
func (r *IngestReport) Succeeded() []AlbumResult {
	var out []AlbumResult
	for _, res := range r.Results {
		if res.AlbumID != 0 {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the results that carry an error.
func (r *IngestReport) Failed() []AlbumResult {
	var out []AlbumResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Discover runs a discovery pass under root and logs every skipped folder.
func (s *CatalogService) Discover(root *Path) (*ScanResult, error) {
	s.logger.Debug("discovering albums", "root", root.String())

	result, err := Discover(s.fsmgr, root, s.marker)
	if err != nil {
		return nil, err
	}

	for _, d := range result.Skipped {
		if d.Kind == DiagnosticAlreadyIngested {
			s.logger.Debug("folder skipped", "path", d.Path, "reason", d.Message)
			continue
		}
		s.logger.Warn("folder skipped", "path", d.Path, "reason", d.Message)
	}
	s.logger.Info("discovery complete", "albums", result.AlbumCount(), "skipped", len(result.Skipped))
	return result, nil
}

// Scan discovers albums under root and ingests them. With dryRun set the
// albums are only planned: nothing is stored and no marker is written.
func (s *CatalogService) Scan(root *Path, dryRun bool) (*IngestReport, error) {
	result, err := s.Discover(root)
	if err != nil {
		return nil, err
	}
	if !dryRun {
		return s.Ingest(result), nil
	}

	report := &IngestReport{Skipped: result.Skipped}
	s.forEachAlbum(result, func(artist, folder, path string) {
		res := AlbumResult{Artist: artist, Folder: folder, Path: path}
		album, err := PlanAlbum(s.fsmgr, result.Root, artist, folder, path)
		if err != nil {
			res.Err = err
		} else {
			res.Tracks = len(album.Tracklist)
		}
		report.Results = append(report.Results, res)
	})
	return report, nil
}

// Ingest plans and persists every album in result. A failing album is
// recorded in the report and does not stop the batch. The marker file is
// written into an album folder only after its transaction has committed.
func (s *CatalogService) Ingest(result *ScanResult) *IngestReport {
	report := &IngestReport{Skipped: result.Skipped}

	s.forEachAlbum(result, func(artist, folder, path string) {
		report.Results = append(report.Results, s.ingestOne(result.Root, artist, folder, path))
	})

	s.logger.Info("ingestion complete",
		"ingested", len(report.Succeeded()),
		"failed", len(report.Failed()),
		"skipped", len(report.Skipped))
	return report
}

// forEachAlbum calls fn for every album in result, sorted by artist then folder.
func (s *CatalogService) forEachAlbum(result *ScanResult, fn func(artist, folder, path string)) {
	for _, artist := range sortedKeys(result.Albums) {
		albums := result.Albums[artist]
		for _, folder := range sortedKeys(albums) {
			fn(artist, folder, albums[folder])
		}
	}
}

func (s *CatalogService) ingestOne(root, artist, folder, path string) AlbumResult {
	res := AlbumResult{Artist: artist, Folder: folder, Path: path}

	album, err := PlanAlbum(s.fsmgr, root, artist, folder, path)
	if err != nil {
		s.logger.Error("album planning failed", "path", path, "error", err)
		res.Err = err
		return res
	}
	res.Tracks = len(album.Tracklist)

	id, err := s.database.PersistAlbum(album)
	if err != nil {
		s.logger.Error("album persistence failed", "path", path, "error", err)
		res.Err = err
		return res
	}
	res.AlbumID = id
	s.logger.Info("album ingested", "id", id, "artist", artist, "title", album.Title, "tracks", album.TotalTracks)

	if err := s.markIngested(path); err != nil {
		s.logger.Error("writing marker failed", "path", path, "error", err)
		res.Err = err
	}
	return res
}

func (s *CatalogService) markIngested(path string) error {
	dir, err := s.fsmgr.Resolve(path)
	if err != nil {
		return fmt.Errorf("resolving album folder: %w", err)
	}
	if err := s.fsmgr.WriteMarker(dir, s.marker); err != nil {
		return fmt.Errorf("marking album folder as ingested: %w", err)
	}
	return nil
}

// ListAlbums returns catalogued albums, optionally filtered by metadata status.
func (s *CatalogService) ListAlbums(status model.MetadataStatus) ([]*model.Album, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown metadata status: %q", status)
	}
	albums, err := s.database.ListAlbums(status)
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	return albums, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
