package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"taggivm/internal/catalog"
)

// OSFilesystemManager is the real filesystem implementation of catalog.FilesystemManager.
type OSFilesystemManager struct {
	patterns []string // from config, applied under every root

	mu       sync.Mutex
	matchers map[string]*IgnoreMatcher // by library root
}

// NewOSFilesystemManager creates a filesystem manager that applies the given
// ignore patterns in addition to each library root's ignore file.
func NewOSFilesystemManager(ignorePatterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{
		patterns: ignorePatterns,
		matchers: make(map[string]*IgnoreMatcher),
	}
}

// Resolve validates a raw path and returns a Path object. The path is made
// absolute and symlinks in it are evaluated, so a library reached through a
// link is stored under its real location.
func (m *OSFilesystemManager) Resolve(rawPath string) (*catalog.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}
	absPath, err = filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fmt.Errorf("resolving symlinks: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	if !mode.IsRegular() && !mode.IsDir() {
		return nil, fmt.Errorf("unsupported file type %s: %s", mode.Type(), absPath)
	}

	return catalog.NewPath(absPath, info.IsDir(), info), nil
}

// ReadDir lists the regular files and folders directly inside dir, sorted by
// name. Symlinks and special files are left out.
func (m *OSFilesystemManager) ReadDir(dir *catalog.Path) ([]*catalog.Path, error) {
	if !dir.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir.String())
	}

	entries, err := os.ReadDir(dir.String())
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	paths := make([]*catalog.Path, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue // removed since the listing
			}
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		fullPath := filepath.Join(dir.String(), entry.Name())
		paths = append(paths, catalog.NewPath(fullPath, entry.IsDir(), info))
	}
	return paths, nil
}

// IsIgnored reports whether path matches the configured patterns or those in
// root's ignore file. The ignore file is read once per root.
func (m *OSFilesystemManager) IsIgnored(path *catalog.Path, root string) (bool, error) {
	matcher, err := m.matcherFor(root)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(root, path.String())
	if err != nil {
		return false, fmt.Errorf("relative path: %w", err)
	}
	return matcher.Match(rel, path.IsDir()), nil
}

func (m *OSFilesystemManager) matcherFor(root string) (*IgnoreMatcher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if matcher, ok := m.matchers[root]; ok {
		return matcher, nil
	}

	filePatterns, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}

	patterns := make([]string, 0, len(defaultIgnorePatterns)+len(m.patterns)+len(filePatterns))
	patterns = append(patterns, defaultIgnorePatterns...)
	patterns = append(patterns, m.patterns...)
	patterns = append(patterns, filePatterns...)

	matcher := NewIgnoreMatcher(patterns)
	m.matchers[root] = matcher
	return matcher, nil
}

// WriteMarker creates the empty file name inside dir. An existing marker is
// left as is.
func (m *OSFilesystemManager) WriteMarker(dir *catalog.Path, name string) error {
	if !dir.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dir.String())
	}
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid marker name %q", name)
	}

	f, err := os.OpenFile(filepath.Join(dir.String(), name), os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("creating marker: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing marker: %w", err)
	}
	return nil
}

// Compile-time check that OSFilesystemManager implements catalog.FilesystemManager interface
var _ catalog.FilesystemManager = (*OSFilesystemManager)(nil)
