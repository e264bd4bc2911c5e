package catalog_test

import (
	"errors"
	"reflect"
	"testing"

	"taggivm/internal/catalog"
	"taggivm/internal/testutil"
)

const root = "/music"

func discover(t *testing.T, fsmgr *testutil.MockFilesystemManager) *catalog.ScanResult {
	t.Helper()
	rootPath, err := fsmgr.Resolve(root)
	if err != nil {
		t.Fatalf("Resolve(%s) error = %v", root, err)
	}
	result, err := catalog.Discover(fsmgr, rootPath, "")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	return result
}

func skippedKinds(result *catalog.ScanResult) map[string]catalog.DiagnosticKind {
	kinds := make(map[string]catalog.DiagnosticKind, len(result.Skipped))
	for _, d := range result.Skipped {
		kinds[d.Path] = d.Kind
	}
	return kinds
}

func TestIsAudioFile(t *testing.T) {
	tests := map[string]bool{
		"01 Airbag.mp3":    true,
		"01 Airbag.MP3":    true,
		"track.flac":       true,
		"track.wav":        true,
		"track.m4a":        true,
		"cover.jpg":        false,
		"notes.txt":        false,
		"mp3":              false,
		".scanned":         false,
		"track.mp3.part":   false,
		"Live At.Flac.ogg": false,
	}
	for name, want := range tests {
		if got := catalog.IsAudioFile(name); got != want {
			t.Errorf("IsAudioFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestDiscover(t *testing.T) {
	t.Run("finds valid album folders", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddFile("/music/Radiohead/1997 - OK Computer/01 Airbag.mp3", nil)
		fsmgr.AddFile("/music/Radiohead/1997 - OK Computer/02 Paranoid Android.flac", nil)
		fsmgr.AddFile("/music/Radiohead/1997 - OK Computer/cover.jpg", nil)
		fsmgr.AddFile("/music/Radiohead/2000 - Kid A/01 Everything In Its Right Place.M4A", nil)
		fsmgr.AddFile("/music/Portishead/1994 - Dummy/01 Mysterons.wav", nil)

		result := discover(t, fsmgr)

		want := map[string]map[string]string{
			"Radiohead": {
				"1997 - OK Computer": "/music/Radiohead/1997 - OK Computer",
				"2000 - Kid A":       "/music/Radiohead/2000 - Kid A",
			},
			"Portishead": {
				"1994 - Dummy": "/music/Portishead/1994 - Dummy",
			},
		}
		if !reflect.DeepEqual(result.Albums, want) {
			t.Errorf("Albums = %v, want %v", result.Albums, want)
		}
		if result.AlbumCount() != 3 {
			t.Errorf("AlbumCount() = %d, want 3", result.AlbumCount())
		}
		if len(result.Skipped) != 0 {
			t.Errorf("Skipped = %v, want none", result.Skipped)
		}
		if result.Root != root {
			t.Errorf("Root = %q, want %q", result.Root, root)
		}
	})

	t.Run("reports audio at the wrong depth", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddFile("/music/loose.mp3", nil)
		fsmgr.AddFile("/music/Radiohead/single.mp3", nil)
		fsmgr.AddFile("/music/Radiohead/1997 - OK Computer/CD1/01 Airbag.mp3", nil)

		result := discover(t, fsmgr)

		if result.AlbumCount() != 0 {
			t.Errorf("AlbumCount() = %d, want 0", result.AlbumCount())
		}
		kinds := skippedKinds(result)
		for _, path := range []string{
			"/music",
			"/music/Radiohead",
			"/music/Radiohead/1997 - OK Computer/CD1",
		} {
			if kinds[path] != catalog.DiagnosticWrongDepth {
				t.Errorf("%s: kind = %q, want wrong-depth", path, kinds[path])
			}
		}
		if _, ok := kinds["/music/Radiohead/1997 - OK Computer"]; ok {
			t.Error("folder without audio files of its own should not be reported")
		}
	})

	t.Run("reports naming mismatches", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddFile("/music/Radiohead/OK Computer/01 Airbag.mp3", nil)
		fsmgr.AddFile("/music/Radiohead/97 - Kid A/01.mp3", nil)
		fsmgr.AddFile("/music/Radiohead/1997-Amnesiac/01.mp3", nil)

		result := discover(t, fsmgr)

		if result.AlbumCount() != 0 {
			t.Errorf("AlbumCount() = %d, want 0", result.AlbumCount())
		}
		if len(result.Skipped) != 3 {
			t.Fatalf("len(Skipped) = %d, want 3: %v", len(result.Skipped), result.Skipped)
		}
		for _, d := range result.Skipped {
			if d.Kind != catalog.DiagnosticNamingMismatch {
				t.Errorf("%s: kind = %q, want naming-mismatch", d.Path, d.Kind)
			}
		}
	})

	t.Run("marker skips folder and its subtree", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddFile("/music/Radiohead/1997 - OK Computer/01 Airbag.mp3", nil)
		fsmgr.AddFile("/music/Radiohead/1997 - OK Computer/.scanned", nil)
		fsmgr.AddFile("/music/Radiohead/1997 - OK Computer/Bonus/01 Lucky.mp3", nil)
		fsmgr.AddFile("/music/Radiohead/2000 - Kid A/01 Everything In Its Right Place.mp3", nil)

		result := discover(t, fsmgr)

		if _, ok := result.Albums["Radiohead"]["1997 - OK Computer"]; ok {
			t.Error("marked album returned for ingestion")
		}
		if _, ok := result.Albums["Radiohead"]["2000 - Kid A"]; !ok {
			t.Error("unmarked album missing")
		}
		kinds := skippedKinds(result)
		if kinds["/music/Radiohead/1997 - OK Computer"] != catalog.DiagnosticAlreadyIngested {
			t.Errorf("marked folder kind = %q, want already-ingested", kinds["/music/Radiohead/1997 - OK Computer"])
		}
		if _, ok := kinds["/music/Radiohead/1997 - OK Computer/Bonus"]; ok {
			t.Error("subtree of marked folder was visited")
		}
	})

	t.Run("custom marker name", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddFile("/music/Radiohead/1997 - OK Computer/01 Airbag.mp3", nil)
		fsmgr.AddFile("/music/Radiohead/1997 - OK Computer/.scanned", nil)

		rootPath, _ := fsmgr.Resolve(root)
		result, err := catalog.Discover(fsmgr, rootPath, ".catalogued")
		if err != nil {
			t.Fatalf("Discover() error = %v", err)
		}
		if result.AlbumCount() != 1 {
			t.Errorf("AlbumCount() = %d, want 1 (.scanned is not the marker)", result.AlbumCount())
		}
	})

	t.Run("ignored folders are neither ingested nor reported", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.SetIgnorePatterns([]string{"_*"})
		fsmgr.AddFile("/music/_Incoming/2020 - Unsorted/01.mp3", nil)
		fsmgr.AddFile("/music/Radiohead/1997 - OK Computer/01 Airbag.mp3", nil)

		result := discover(t, fsmgr)

		if result.AlbumCount() != 1 {
			t.Errorf("AlbumCount() = %d, want 1", result.AlbumCount())
		}
		if len(result.Skipped) != 0 {
			t.Errorf("Skipped = %v, want none", result.Skipped)
		}
	})

	t.Run("unreadable folder is reported and the walk continues", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddFile("/music/Radiohead/1997 - OK Computer/01 Airbag.mp3", nil)
		fsmgr.AddFile("/music/Portishead/1994 - Dummy/01 Mysterons.mp3", nil)
		fsmgr.FailReadDir("/music/Portishead", errors.New("permission denied"))

		result := discover(t, fsmgr)

		if result.AlbumCount() != 1 {
			t.Errorf("AlbumCount() = %d, want 1", result.AlbumCount())
		}
		if kinds := skippedKinds(result); kinds["/music/Portishead"] != catalog.DiagnosticUnreadable {
			t.Errorf("kind = %q, want unreadable", kinds["/music/Portishead"])
		}
	})

	t.Run("empty library", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddDirectory(root)

		result := discover(t, fsmgr)
		if result.AlbumCount() != 0 || len(result.Skipped) != 0 {
			t.Errorf("result = %+v, want empty", result)
		}
	})

	t.Run("is deterministic and read-only", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddFile("/music/b.mp3", nil)
		fsmgr.AddFile("/music/Z/x.mp3", nil)
		fsmgr.AddFile("/music/A/bad/x.mp3", nil)
		fsmgr.AddFile("/music/A/2001 - Good/x.mp3", nil)

		first := discover(t, fsmgr)
		second := discover(t, fsmgr)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("results differ:\n%+v\n%+v", first, second)
		}
		if fsmgr.Exists("/music/A/2001 - Good/.scanned") {
			t.Error("Discover wrote a marker")
		}
	})
}

func TestDiscover_Errors(t *testing.T) {
	t.Run("root is a file", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddFile("/music.mp3", nil)
		p, _ := fsmgr.Resolve("/music.mp3")

		if _, err := catalog.Discover(fsmgr, p, ""); err == nil {
			t.Error("Discover() expected error for a file root")
		}
	})

	t.Run("root cannot be read", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddDirectory(root)
		fsmgr.FailReadDir(root, errors.New("permission denied"))
		p, _ := fsmgr.Resolve(root)

		if _, err := catalog.Discover(fsmgr, p, ""); err == nil {
			t.Error("Discover() expected error for unreadable root")
		}
	})
}
