package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrNoImport indicates a Config without an import function.
	ErrNoImport = errors.New("loader: no import function configured")

	// ErrClosed indicates the loader was torn down.
	ErrClosed = errors.New("loader: closed")

	// ErrNilModule indicates the import succeeded but produced nothing.
	ErrNilModule = errors.New("loader: import returned nil module")
)

// LoadError wraps a failed import with the attempt it belonged to.
type LoadError struct {
	Attempt int
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loader: import attempt %d failed: %v", e.Attempt, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
