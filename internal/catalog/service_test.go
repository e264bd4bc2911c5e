package catalog_test

import (
	"errors"
	"testing"

	"taggivm/internal/catalog"
	"taggivm/internal/model"
	"taggivm/internal/testutil"
)

const (
	okComputer = "/music/Radiohead/1997 - OK Computer"
	kidA       = "/music/Radiohead/2000 - Kid A"
	dummy      = "/music/Portishead/1994 - Dummy"
)

func newLibrary() *testutil.MockFilesystemManager {
	fsmgr := testutil.NewMockFilesystemManager()
	fsmgr.AddFile(okComputer+"/01 Airbag.mp3", nil)
	fsmgr.AddFile(okComputer+"/02 Paranoid Android.mp3", nil)
	fsmgr.AddFile(okComputer+"/03 Subterranean Homesick Alien.mp3", nil)
	fsmgr.AddFile(kidA+"/01 Everything In Its Right Place.flac", nil)
	fsmgr.AddFile(dummy+"/01 Mysterons.mp3", nil)
	fsmgr.AddFile(dummy+"/02 Sour Times.mp3", nil)
	return fsmgr
}

func discoverWith(t *testing.T, svc *catalog.CatalogService, fsmgr *testutil.MockFilesystemManager) *catalog.ScanResult {
	t.Helper()
	rootPath, err := fsmgr.Resolve(root)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	result, err := svc.Discover(rootPath)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	return result
}

func TestCatalogService_Ingest(t *testing.T) {
	t.Run("ingests every discovered album and marks it", func(t *testing.T) {
		db := testutil.NewTestDatabase(t, testutil.FixedClock())
		fsmgr := newLibrary()
		svc := catalog.NewCatalogService(db, fsmgr, nil, "")

		report := svc.Ingest(discoverWith(t, svc, fsmgr))

		if len(report.Results) != 3 || len(report.Succeeded()) != 3 || len(report.Failed()) != 0 {
			t.Fatalf("report = %+v", report)
		}
		// Results follow sorted artist then album order.
		wantOrder := []string{dummy, okComputer, kidA}
		for i, path := range wantOrder {
			if report.Results[i].Path != path {
				t.Errorf("Results[%d].Path = %q, want %q", i, report.Results[i].Path, path)
			}
		}
		if report.Results[1].Tracks != 3 {
			t.Errorf("OK Computer tracks = %d, want 3", report.Results[1].Tracks)
		}

		for _, path := range wantOrder {
			if !fsmgr.Exists(path + "/.scanned") {
				t.Errorf("marker missing in %s", path)
			}
		}

		album, err := db.FindAlbumByPath(okComputer)
		if err != nil || album == nil {
			t.Fatalf("FindAlbumByPath() = %v, %v", album, err)
		}
		if album.Title != "OK Computer" || album.ReleaseYear != "1997" || album.TotalTracks != 3 {
			t.Errorf("stored album = %+v", album)
		}
		tracks, err := db.FindTracksByAlbum(album.ID)
		if err != nil {
			t.Fatalf("FindTracksByAlbum() error = %v", err)
		}
		if len(tracks) != 3 {
			t.Errorf("stored tracks = %d, want 3", len(tracks))
		}
	})

	t.Run("second run finds nothing new", func(t *testing.T) {
		db := testutil.NewTestDatabase(t, testutil.FixedClock())
		fsmgr := newLibrary()
		svc := catalog.NewCatalogService(db, fsmgr, nil, "")

		svc.Ingest(discoverWith(t, svc, fsmgr))
		again := discoverWith(t, svc, fsmgr)

		if again.AlbumCount() != 0 {
			t.Errorf("AlbumCount() on second run = %d, want 0", again.AlbumCount())
		}
		if len(again.Skipped) != 3 {
			t.Errorf("len(Skipped) = %d, want 3", len(again.Skipped))
		}
		for _, d := range again.Skipped {
			if d.Kind != catalog.DiagnosticAlreadyIngested {
				t.Errorf("%s: kind = %q, want already-ingested", d.Path, d.Kind)
			}
		}

		report := svc.Ingest(again)
		if len(report.Results) != 0 {
			t.Errorf("second Ingest() results = %d, want 0", len(report.Results))
		}
		albums, err := db.ListAlbums("")
		if err != nil {
			t.Fatal(err)
		}
		if len(albums) != 3 {
			t.Errorf("albums after second run = %d, want 3", len(albums))
		}
	})

	t.Run("failed album does not stop the batch", func(t *testing.T) {
		db := testutil.NewTestDatabase(t, testutil.FixedClock())
		fsmgr := newLibrary()
		svc := catalog.NewCatalogService(db, fsmgr, nil, "")

		// Stored earlier but never marked, so the insert collides on path.
		stored, err := catalog.PlanAlbum(fsmgr, root, "Portishead", "1994 - Dummy", dummy)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.PersistAlbum(stored); err != nil {
			t.Fatal(err)
		}

		report := svc.Ingest(discoverWith(t, svc, fsmgr))

		failed := report.Failed()
		if len(failed) != 1 || failed[0].Path != dummy {
			t.Fatalf("Failed() = %+v, want only %s", failed, dummy)
		}
		if !catalog.IsPersistenceKind(failed[0].Err, catalog.ConstraintViolation) {
			t.Errorf("error = %v, want ConstraintViolation", failed[0].Err)
		}
		if failed[0].AlbumID != 0 {
			t.Errorf("failed AlbumID = %d, want 0", failed[0].AlbumID)
		}
		if len(report.Succeeded()) != 2 {
			t.Errorf("len(Succeeded()) = %d, want 2", len(report.Succeeded()))
		}
		if fsmgr.Exists(dummy + "/.scanned") {
			t.Error("marker written for a failed album")
		}
		if !fsmgr.Exists(okComputer + "/.scanned") {
			t.Error("marker missing for an ingested album")
		}
	})

	t.Run("album emptied after discovery", func(t *testing.T) {
		db := testutil.NewTestDatabase(t, testutil.FixedClock())
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddFile(okComputer+"/cover.jpg", nil)
		svc := catalog.NewCatalogService(db, fsmgr, nil, "")

		result := &catalog.ScanResult{
			Root:   root,
			Albums: map[string]map[string]string{"Radiohead": {"1997 - OK Computer": okComputer}},
		}
		report := svc.Ingest(result)

		if len(report.Failed()) != 1 {
			t.Fatalf("Failed() = %+v, want 1", report.Failed())
		}
		if !catalog.IsPersistenceKind(report.Failed()[0].Err, catalog.EmptyTracklist) {
			t.Errorf("error = %v, want EmptyTracklist", report.Failed()[0].Err)
		}
		if fsmgr.Exists(okComputer + "/.scanned") {
			t.Error("marker written for an empty album")
		}
	})

	t.Run("marker failure keeps the stored album", func(t *testing.T) {
		db := testutil.NewTestDatabase(t, testutil.FixedClock())
		fsmgr := newLibrary()
		fsmgr.FailMarkers(errors.New("read-only file system"))
		svc := catalog.NewCatalogService(db, fsmgr, nil, "")

		report := svc.Ingest(discoverWith(t, svc, fsmgr))

		if len(report.Succeeded()) != 3 {
			t.Errorf("len(Succeeded()) = %d, want 3", len(report.Succeeded()))
		}
		if len(report.Failed()) != 3 {
			t.Errorf("len(Failed()) = %d, want 3", len(report.Failed()))
		}
		albums, err := db.ListAlbums("")
		if err != nil {
			t.Fatal(err)
		}
		if len(albums) != 3 {
			t.Errorf("albums = %d, want 3", len(albums))
		}
	})

	t.Run("skipped folders are carried into the report", func(t *testing.T) {
		db := testutil.NewTestDatabase(t, nil)
		fsmgr := newLibrary()
		fsmgr.AddFile("/music/Radiohead/Singles/Creep.mp3", nil)
		svc := catalog.NewCatalogService(db, fsmgr, nil, "")

		report := svc.Ingest(discoverWith(t, svc, fsmgr))

		if len(report.Skipped) != 1 || report.Skipped[0].Kind != catalog.DiagnosticNamingMismatch {
			t.Errorf("Skipped = %+v, want one naming mismatch", report.Skipped)
		}
	})
}

func TestCatalogService_ListAlbums(t *testing.T) {
	db := testutil.NewTestDatabase(t, testutil.FixedClock())
	fsmgr := newLibrary()
	svc := catalog.NewCatalogService(db, fsmgr, nil, "")
	svc.Ingest(discoverWith(t, svc, fsmgr))

	pending, err := svc.ListAlbums(model.MetadataPending)
	if err != nil {
		t.Fatalf("ListAlbums(pending) error = %v", err)
	}
	if len(pending) != 3 {
		t.Errorf("len(pending) = %d, want 3", len(pending))
	}

	complete, err := svc.ListAlbums(model.MetadataComplete)
	if err != nil {
		t.Fatalf("ListAlbums(complete) error = %v", err)
	}
	if len(complete) != 0 {
		t.Errorf("len(complete) = %d, want 0", len(complete))
	}

	if _, err := svc.ListAlbums("done"); err == nil {
		t.Error("ListAlbums() expected error for unknown status")
	}
}

func TestCatalogService_GetHistory(t *testing.T) {
	db := testutil.NewTestDatabase(t, testutil.FixedClock())
	svc := catalog.NewCatalogService(db, testutil.NewMockFilesystemManager(), nil, "")

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		run, err := db.CreateIngestRun(id)
		if err != nil {
			t.Fatal(err)
		}
		run.Status = "success"
		if err := db.FinishIngestRun(run); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := svc.GetHistory(2)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].RunID != "run-3" || runs[1].RunID != "run-2" {
		t.Errorf("runs = %s, %s; want run-3, run-2", runs[0].RunID, runs[1].RunID)
	}
}

func TestCatalogService_Scan(t *testing.T) {
	t.Run("dry run plans without writing", func(t *testing.T) {
		db := testutil.NewTestDatabase(t, testutil.FixedClock())
		fsmgr := newLibrary()
		svc := catalog.NewCatalogService(db, fsmgr, nil, "")
		rootPath, _ := fsmgr.Resolve(root)

		report, err := svc.Scan(rootPath, true)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(report.Results) != 3 {
			t.Fatalf("len(Results) = %d, want 3", len(report.Results))
		}
		if len(report.Succeeded()) != 0 || len(report.Failed()) != 0 {
			t.Errorf("dry run report = %+v, want only planned albums", report)
		}
		if report.Results[1].Tracks != 3 {
			t.Errorf("planned tracks = %d, want 3", report.Results[1].Tracks)
		}
		if fsmgr.Exists(okComputer + "/.scanned") {
			t.Error("dry run wrote a marker")
		}
		albums, err := db.ListAlbums("")
		if err != nil {
			t.Fatal(err)
		}
		if len(albums) != 0 {
			t.Errorf("dry run stored %d albums", len(albums))
		}
	})

	t.Run("ignored files are not stored", func(t *testing.T) {
		db := testutil.NewTestDatabase(t, testutil.FixedClock())
		fsmgr := newLibrary()
		fsmgr.SetIgnorePatterns([]string{"*.wav"})
		fsmgr.AddFile(okComputer+"/sample.wav", nil)
		svc := catalog.NewCatalogService(db, fsmgr, nil, "")
		rootPath, _ := fsmgr.Resolve(root)

		if _, err := svc.Scan(rootPath, false); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		album, err := db.FindAlbumByPath(okComputer)
		if err != nil || album == nil {
			t.Fatalf("FindAlbumByPath() = %v, %v", album, err)
		}
		if album.TotalTracks != 3 {
			t.Errorf("TotalTracks = %d, want 3", album.TotalTracks)
		}
		tracks, err := db.FindTracksByAlbum(album.ID)
		if err != nil {
			t.Fatal(err)
		}
		for _, tr := range tracks {
			if tr.Format == "wav" {
				t.Errorf("ignored file stored as track: %s", tr.Path)
			}
		}
		if len(tracks) != 3 {
			t.Errorf("stored tracks = %d, want 3", len(tracks))
		}
	})

	t.Run("real run ingests", func(t *testing.T) {
		db := testutil.NewTestDatabase(t, testutil.FixedClock())
		fsmgr := newLibrary()
		svc := catalog.NewCatalogService(db, fsmgr, nil, ".catalogued")
		rootPath, _ := fsmgr.Resolve(root)

		report, err := svc.Scan(rootPath, false)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(report.Succeeded()) != 3 {
			t.Errorf("len(Succeeded()) = %d, want 3", len(report.Succeeded()))
		}
		if !fsmgr.Exists(dummy + "/.catalogued") {
			t.Error("custom marker not written")
		}
	})
}
