package particles

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgs indicates a negative or non-finite construction argument.
	ErrInvalidArgs = errors.New("particles: invalid construction arguments")

	// ErrDisposed indicates use of a field after Dispose.
	ErrDisposed = errors.New("particles: field disposed")

	// ErrIndex indicates a particle index outside the field.
	ErrIndex = errors.New("particles: index out of range")
)

// ArgError names the offending argument.
type ArgError struct {
	Arg   string
	Value float64
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("particles: invalid %s: %g", e.Arg, e.Value)
}

func (e *ArgError) Unwrap() error {
	return ErrInvalidArgs
}
