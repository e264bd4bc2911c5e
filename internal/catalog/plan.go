package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"taggivm/internal/model"
)

// albumFolderSeparator splits "YYYY - Title" album folder names.
const albumFolderSeparator = " - "

// SplitAlbumFolder splits an album folder name into release year and title
// on the first " - ".
func SplitAlbumFolder(folder string) (year, title string, err error) {
	year, title, found := strings.Cut(folder, albumFolderSeparator)
	if !found {
		return "", "", fmt.Errorf("folder name has no %q separator", albumFolderSeparator)
	}
	if strings.TrimSpace(year) == "" {
		return "", "", errors.New("folder name has an empty release year")
	}
	if strings.TrimSpace(title) == "" {
		return "", "", errors.New("folder name has an empty title")
	}
	return year, title, nil
}

// PlanAlbum builds an Album aggregate for one album folder. It lists the audio
// files directly inside albumPath and derives one Track per file. Files
// matching the ignore rules of the library at root are left out, as they are
// during discovery. Storage is not touched.
func PlanAlbum(fsmgr FilesystemManager, root, artist, albumFolder, albumPath string) (*model.Album, error) {
	year, title, err := SplitAlbumFolder(albumFolder)
	if err != nil {
		return nil, &PlanningError{Folder: albumFolder, Path: albumPath, Err: err}
	}

	dir, err := fsmgr.Resolve(albumPath)
	if err != nil {
		return nil, &PlanningError{Folder: albumFolder, Path: albumPath, Err: err}
	}
	if !dir.IsDir() {
		return nil, &PlanningError{Folder: albumFolder, Path: albumPath, Err: errors.New("not a directory")}
	}

	entries, err := fsmgr.ReadDir(dir)
	if err != nil {
		return nil, &PlanningError{Folder: albumFolder, Path: albumPath, Err: fmt.Errorf("listing tracks: %w", err)}
	}

	album := &model.Album{
		Title:          title,
		ReleaseYear:    year,
		AlbumArtist:    artist,
		Path:           dir.String(),
		MetadataStatus: model.MetadataPending,
	}

	for _, e := range entries {
		if e.IsDir() || !IsAudioFile(e.Name()) {
			continue
		}
		ignored, err := fsmgr.IsIgnored(e, root)
		if err != nil {
			return nil, &PlanningError{Folder: albumFolder, Path: albumPath,
				Err: fmt.Errorf("checking ignore rules for %s: %w", e.Name(), err)}
		}
		if ignored {
			continue
		}
		album.Tracklist = append(album.Tracklist, planTrack(e))
	}
	album.TotalTracks = len(album.Tracklist)

	return album, nil
}

func planTrack(file *Path) model.Track {
	name := file.Name()
	ext := filepath.Ext(name)
	return model.Track{
		Title:  strings.TrimSuffix(name, ext),
		Path:   file.String(),
		Format: strings.ToLower(strings.TrimPrefix(ext, ".")),
	}
}
