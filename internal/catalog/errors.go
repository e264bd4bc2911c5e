package catalog

import (
	"errors"
	"fmt"
)

// ErrDatabaseNotFound is returned when a command needs a database that has not been initialized.
var ErrDatabaseNotFound = errors.New("database not found")

// ErrDatabaseExists is returned when initializing over an existing database file.
var ErrDatabaseExists = errors.New("database already exists")

// InitializationError reports a failed schema or static-data setup.
// The storage at Path must not be reused; callers remove it.
type InitializationError struct {
	Path string
	Err  error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initializing database %s: %v", e.Path, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// PlanningError reports an album folder that cannot be turned into an Album aggregate.
type PlanningError struct {
	Folder string
	Path   string
	Err    error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning album %q (%s): %v", e.Folder, e.Path, e.Err)
}

func (e *PlanningError) Unwrap() error { return e.Err }

// PersistenceErrorKind classifies why an album could not be stored.
type PersistenceErrorKind int

const (
	EmptyTracklist PersistenceErrorKind = iota + 1
	ConstraintViolation
	StorageUnavailable
)

func (k PersistenceErrorKind) String() string {
	switch k {
	case EmptyTracklist:
		return "empty tracklist"
	case ConstraintViolation:
		return "constraint violation"
	case StorageUnavailable:
		return "storage unavailable"
	default:
		return fmt.Sprintf("PersistenceErrorKind(%d)", int(k))
	}
}

// PersistenceError reports a failed album insertion. The transaction has been rolled back.
type PersistenceError struct {
	Kind PersistenceErrorKind
	Path string // album path
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("persisting album %s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("persisting album %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistenceKind reports whether err is a PersistenceError of the given kind.
func IsPersistenceKind(err error, kind PersistenceErrorKind) bool {
	var pe *PersistenceError
	return errors.As(err, &pe) && pe.Kind == kind
}
