package testutil

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"taggivm/internal/catalog"
	taggivmfs "taggivm/internal/fs"
)

// MockFile represents a file or folder in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing.
// Parent folders are created implicitly by AddFile and AddDirectory.
type MockFilesystemManager struct {
	files       map[string]*MockFile
	ignore      *taggivmfs.IgnoreMatcher
	readErrors  map[string]error
	markerError error
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files:      make(map[string]*MockFile),
		ignore:     taggivmfs.NewIgnoreMatcher(nil),
		readErrors: make(map[string]error),
	}
}

// AddFile adds a file to the mock filesystem.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.addParents(path)
	m.files[path] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
	}
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.addParents(path)
	m.files[path] = &MockFile{
		Permissions: 0755,
		ModTime:     time.Now(),
		IsDirectory: true,
	}
}

func (m *MockFilesystemManager) addParents(path string) {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if _, ok := m.files[dir]; !ok {
			m.files[dir] = &MockFile{Permissions: 0755, ModTime: time.Now(), IsDirectory: true}
		}
		if dir == filepath.Dir(dir) {
			return
		}
	}
}

// SetIgnorePatterns replaces the ignore rules used by IsIgnored.
func (m *MockFilesystemManager) SetIgnorePatterns(patterns []string) {
	m.ignore = taggivmfs.NewIgnoreMatcher(patterns)
}

// FailReadDir makes ReadDir of path return err.
func (m *MockFilesystemManager) FailReadDir(path string, err error) {
	m.readErrors[path] = err
}

// FailMarkers makes every WriteMarker call return err.
func (m *MockFilesystemManager) FailMarkers(err error) {
	m.markerError = err
}

// Exists reports whether path is present in the mock filesystem.
func (m *MockFilesystemManager) Exists(path string) bool {
	_, ok := m.files[path]
	return ok
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*catalog.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("stat path: %w", fs.ErrNotExist)
	}
	return m.path(absPath, file), nil
}

func (m *MockFilesystemManager) ReadDir(dir *catalog.Path) ([]*catalog.Path, error) {
	if err, ok := m.readErrors[dir.String()]; ok {
		return nil, err
	}
	file, ok := m.files[dir.String()]
	if !ok {
		return nil, fmt.Errorf("reading directory: %w", fs.ErrNotExist)
	}
	if !file.IsDirectory {
		return nil, fmt.Errorf("path is not a directory: %s", dir.String())
	}

	var names []string
	for p := range m.files {
		if p != dir.String() && filepath.Dir(p) == dir.String() {
			names = append(names, p)
		}
	}
	sort.Strings(names)

	paths := make([]*catalog.Path, 0, len(names))
	for _, p := range names {
		paths = append(paths, m.path(p, m.files[p]))
	}
	return paths, nil
}

func (m *MockFilesystemManager) IsIgnored(path *catalog.Path, root string) (bool, error) {
	rel, err := filepath.Rel(root, path.String())
	if err != nil {
		return false, err
	}
	if strings.HasPrefix(rel, "..") {
		return false, errors.New("path outside library root")
	}
	return m.ignore.Match(rel, path.IsDir()), nil
}

func (m *MockFilesystemManager) WriteMarker(dir *catalog.Path, name string) error {
	if m.markerError != nil {
		return m.markerError
	}
	if !dir.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dir.String())
	}
	m.AddFile(filepath.Join(dir.String(), name), nil)
	return nil
}

func (m *MockFilesystemManager) path(absPath string, file *MockFile) *catalog.Path {
	info := &mockFileInfo{
		name:    filepath.Base(absPath),
		size:    int64(len(file.Content)),
		mode:    file.Permissions,
		modTime: file.ModTime,
		isDir:   file.IsDirectory,
	}
	return catalog.NewPath(absPath, file.IsDirectory, info)
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ catalog.FilesystemManager = (*MockFilesystemManager)(nil)
