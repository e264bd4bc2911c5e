package catalog

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultMarkerName is the file that marks an album folder as already ingested.
const DefaultMarkerName = ".scanned"

// albumFolderPattern matches album folder names like "1997 - OK Computer".
var albumFolderPattern = regexp.MustCompile(`^\d{4} - .+`)

// audioExtensions are the supported audio file extensions, lowercased.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".m4a":  true,
}

// IsAudioFile reports whether name has a supported audio extension (case-insensitive).
func IsAudioFile(name string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(name))]
}

// DiagnosticKind classifies why a folder was skipped.
type DiagnosticKind string

const (
	DiagnosticAlreadyIngested DiagnosticKind = "already-ingested"
	DiagnosticWrongDepth      DiagnosticKind = "wrong-depth"
	DiagnosticNamingMismatch  DiagnosticKind = "naming-mismatch"
	DiagnosticUnreadable      DiagnosticKind = "unreadable"
)

// Diagnostic is a non-fatal note about a folder that will not be ingested.
type Diagnostic struct {
	Path    string
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}

// ScanResult is the outcome of a discovery pass.
type ScanResult struct {
	Root string
	// Albums maps artist folder -> album folder -> absolute album path.
	Albums  map[string]map[string]string
	Skipped []Diagnostic
}

// AlbumCount returns the number of valid album folders found.
func (r *ScanResult) AlbumCount() int {
	n := 0
	for _, albums := range r.Albums {
		n += len(albums)
	}
	return n
}

func (r *ScanResult) addAlbum(artist, folder, path string) {
	if r.Albums[artist] == nil {
		r.Albums[artist] = make(map[string]string)
	}
	r.Albums[artist][folder] = path
}

// Discover walks root and classifies every directory as an album to ingest,
// a skipped folder, or an intermediate folder. It never modifies the filesystem.
//
// A valid album folder sits exactly two levels below root, is named
// "YYYY - Title" and holds at least one audio file. Folders containing the
// marker file are skipped together with their subtree.
func Discover(fsmgr FilesystemManager, root *Path, marker string) (*ScanResult, error) {
	if !root.IsDir() {
		return nil, fmt.Errorf("library root is not a directory: %s", root.String())
	}
	if !filepath.IsAbs(root.String()) {
		return nil, fmt.Errorf("library root must be absolute: %s", root.String())
	}
	if marker == "" {
		marker = DefaultMarkerName
	}

	d := &discoverer{
		fsmgr:  fsmgr,
		root:   root.String(),
		marker: marker,
		result: &ScanResult{
			Root:   root.String(),
			Albums: make(map[string]map[string]string),
		},
	}

	entries, err := fsmgr.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading library root: %w", err)
	}
	if err := d.visit(root, entries); err != nil {
		return nil, err
	}
	return d.result, nil
}

type discoverer struct {
	fsmgr  FilesystemManager
	root   string
	marker string
	result *ScanResult
}

func (d *discoverer) skip(dir *Path, kind DiagnosticKind, msg string) {
	d.result.Skipped = append(d.result.Skipped, Diagnostic{Path: dir.String(), Kind: kind, Message: msg})
}

func (d *discoverer) visit(dir *Path, entries []*Path) error {
	for _, e := range entries {
		if !e.IsDir() && e.Name() == d.marker {
			d.skip(dir, DiagnosticAlreadyIngested, "already ingested")
			return nil
		}
	}

	var subdirs []*Path
	hasAudio := false
	for _, e := range entries {
		ignored, err := d.fsmgr.IsIgnored(e, d.root)
		if err != nil {
			return fmt.Errorf("checking ignore rules for %s: %w", e.String(), err)
		}
		if ignored {
			continue
		}
		if e.IsDir() {
			subdirs = append(subdirs, e)
		} else if IsAudioFile(e.Name()) {
			hasAudio = true
		}
	}

	if hasAudio {
		d.classify(dir)
	}

	for _, sub := range subdirs {
		children, err := d.fsmgr.ReadDir(sub)
		if err != nil {
			d.skip(sub, DiagnosticUnreadable, fmt.Sprintf("cannot read folder: %v", err))
			continue
		}
		if err := d.visit(sub, children); err != nil {
			return err
		}
	}
	return nil
}

// classify records a folder holding audio files as an album or a skipped folder.
func (d *discoverer) classify(dir *Path) {
	rel, err := filepath.Rel(d.root, dir.String())
	if err != nil || rel == "." {
		d.skip(dir, DiagnosticWrongDepth, "audio files directly in the library root; expected Artist/YYYY - Album")
		return
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 {
		d.skip(dir, DiagnosticWrongDepth,
			fmt.Sprintf("invalid folder structure: %d levels deep, expected 2 (Artist/YYYY - Album)", len(parts)))
		return
	}

	artist, album := parts[0], parts[1]
	if !albumFolderPattern.MatchString(album) {
		d.skip(dir, DiagnosticNamingMismatch,
			fmt.Sprintf("naming issue: %q does not match 'YYYY - Album Title'", album))
		return
	}

	d.result.addAlbum(artist, album, dir.String())
}
