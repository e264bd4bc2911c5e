package catalog

// FilesystemManager provides an interface for filesystem operations.
// It abstracts file access to enable testing without touching the real filesystem.
type FilesystemManager interface {
	// Resolve validates a raw path and returns a Path object.
	// It resolves the path to an absolute path with symlinks evaluated,
	// stats it, and validates it's a regular file or directory (not a device, etc.).
	Resolve(rawPath string) (*Path, error)

	// ReadDir returns the immediate children of a directory, sorted by name.
	// Entries that are neither regular files nor directories are omitted.
	ReadDir(dir *Path) ([]*Path, error)

	// IsIgnored reports whether path matches the configured ignore rules.
	// root is the library root the rules are relative to.
	IsIgnored(path *Path, root string) (bool, error)

	// WriteMarker creates the empty marker file name inside dir.
	WriteMarker(dir *Path, name string) error
}
