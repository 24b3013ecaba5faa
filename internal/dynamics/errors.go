package dynamics

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrSchemeNotImplemented is returned for recognised but unsupported
	// collocation schemes.
	ErrSchemeNotImplemented = errors.New("dynamics: collocation scheme not implemented")

	// ErrUnknownScheme indicates a scheme name that is not recognised at all.
	ErrUnknownScheme = errors.New("dynamics: unknown collocation scheme")

	// ErrStepCountMismatch indicates an assembled trajectory whose length
	// disagrees with the requested phase lengths.
	ErrStepCountMismatch = errors.New("dynamics: assembled step count mismatch")

	// ErrPhaseMismatch indicates inconsistent per-phase inputs.
	ErrPhaseMismatch = errors.New("dynamics: phase inputs disagree in length")
)

// BuildError locates a build failure at an entity and time index.
type BuildError struct {
	Entity  string
	Name    string
	Time    int
	Wrapped error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s %q at t=%d: %v", e.Entity, e.Name, e.Time, e.Wrapped)
}

func (e *BuildError) Unwrap() error {
	return e.Wrapped
}
