package catalog_test

import (
	"errors"
	"testing"

	"taggivm/internal/catalog"
	"taggivm/internal/model"
	"taggivm/internal/testutil"
)

func TestSplitAlbumFolder(t *testing.T) {
	tests := []struct {
		folder    string
		wantYear  string
		wantTitle string
		wantErr   bool
	}{
		{folder: "1997 - OK Computer", wantYear: "1997", wantTitle: "OK Computer"},
		{folder: "2001 - Amnesiac - Collectors Edition", wantYear: "2001", wantTitle: "Amnesiac - Collectors Edition"},
		{folder: "1994 - 1994", wantYear: "1994", wantTitle: "1994"},
		{folder: "1997-OK Computer", wantErr: true},
		{folder: "OK Computer", wantErr: true},
		{folder: " - OK Computer", wantErr: true},
		{folder: "1997 - ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.folder, func(t *testing.T) {
			year, title, err := catalog.SplitAlbumFolder(tt.folder)
			if tt.wantErr {
				if err == nil {
					t.Errorf("SplitAlbumFolder(%q) expected error", tt.folder)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitAlbumFolder(%q) error = %v", tt.folder, err)
			}
			if year != tt.wantYear || title != tt.wantTitle {
				t.Errorf("SplitAlbumFolder(%q) = %q, %q; want %q, %q", tt.folder, year, title, tt.wantYear, tt.wantTitle)
			}
		})
	}
}

func TestPlanAlbum(t *testing.T) {
	const albumPath = "/music/Radiohead/1997 - OK Computer"

	t.Run("builds album with one track per audio file", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddFile(albumPath+"/02 Paranoid Android.FLAC", nil)
		fsmgr.AddFile(albumPath+"/01 Airbag.mp3", nil)
		fsmgr.AddFile(albumPath+"/cover.jpg", nil)
		fsmgr.AddFile(albumPath+"/.scanned", nil)
		fsmgr.AddFile(albumPath+"/Bonus/01 Lucky.mp3", nil)

		album, err := catalog.PlanAlbum(fsmgr, root, "Radiohead", "1997 - OK Computer", albumPath)
		if err != nil {
			t.Fatalf("PlanAlbum() error = %v", err)
		}

		if album.Title != "OK Computer" || album.ReleaseYear != "1997" || album.AlbumArtist != "Radiohead" {
			t.Errorf("album = %+v", album)
		}
		if album.Path != albumPath {
			t.Errorf("Path = %q, want %q", album.Path, albumPath)
		}
		if album.MetadataStatus != model.MetadataPending {
			t.Errorf("MetadataStatus = %q, want pending", album.MetadataStatus)
		}
		if album.ID != 0 {
			t.Errorf("ID = %d, want 0 before persistence", album.ID)
		}
		if album.TotalTracks != 2 || len(album.Tracklist) != 2 {
			t.Fatalf("TotalTracks = %d, len(Tracklist) = %d, want 2", album.TotalTracks, len(album.Tracklist))
		}

		first, second := album.Tracklist[0], album.Tracklist[1]
		if first.Title != "01 Airbag" || first.Format != "mp3" || first.Path != albumPath+"/01 Airbag.mp3" {
			t.Errorf("Tracklist[0] = %+v", first)
		}
		if second.Title != "02 Paranoid Android" || second.Format != "flac" {
			t.Errorf("Tracklist[1] = %+v", second)
		}
	})

	t.Run("folder without audio gives empty tracklist", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddFile(albumPath+"/cover.jpg", nil)

		album, err := catalog.PlanAlbum(fsmgr, root, "Radiohead", "1997 - OK Computer", albumPath)
		if err != nil {
			t.Fatalf("PlanAlbum() error = %v", err)
		}
		if len(album.Tracklist) != 0 || album.TotalTracks != 0 {
			t.Errorf("Tracklist = %v, want empty", album.Tracklist)
		}
	})

	t.Run("ignored audio files are not tracks", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.SetIgnorePatterns([]string{"*.wav"})
		fsmgr.AddFile(albumPath+"/01 Airbag.mp3", nil)
		fsmgr.AddFile(albumPath+"/sample.wav", nil)

		album, err := catalog.PlanAlbum(fsmgr, root, "Radiohead", "1997 - OK Computer", albumPath)
		if err != nil {
			t.Fatalf("PlanAlbum() error = %v", err)
		}
		if album.TotalTracks != 1 || len(album.Tracklist) != 1 {
			t.Fatalf("TotalTracks = %d, Tracklist = %v; want only 01 Airbag", album.TotalTracks, album.Tracklist)
		}
		if album.Tracklist[0].Title != "01 Airbag" {
			t.Errorf("track = %q, want 01 Airbag", album.Tracklist[0].Title)
		}
	})

	t.Run("bad folder name", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddFile("/music/Radiohead/OK Computer/01 Airbag.mp3", nil)

		_, err := catalog.PlanAlbum(fsmgr, root, "Radiohead", "OK Computer", "/music/Radiohead/OK Computer")
		var planErr *catalog.PlanningError
		if !errors.As(err, &planErr) {
			t.Fatalf("PlanAlbum() error = %v, want PlanningError", err)
		}
		if planErr.Folder != "OK Computer" {
			t.Errorf("PlanningError.Folder = %q", planErr.Folder)
		}
	})

	t.Run("missing folder", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()

		_, err := catalog.PlanAlbum(fsmgr, root, "Radiohead", "1997 - OK Computer", albumPath)
		var planErr *catalog.PlanningError
		if !errors.As(err, &planErr) {
			t.Errorf("PlanAlbum() error = %v, want PlanningError", err)
		}
	})

	t.Run("unreadable folder", func(t *testing.T) {
		fsmgr := testutil.NewMockFilesystemManager()
		fsmgr.AddFile(albumPath+"/01 Airbag.mp3", nil)
		fsmgr.FailReadDir(albumPath, errors.New("permission denied"))

		_, err := catalog.PlanAlbum(fsmgr, root, "Radiohead", "1997 - OK Computer", albumPath)
		var planErr *catalog.PlanningError
		if !errors.As(err, &planErr) {
			t.Errorf("PlanAlbum() error = %v, want PlanningError", err)
		}
	})
}
