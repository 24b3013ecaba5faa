package optimizer

import "github.com/pkg/errors"

var (
	// ErrUnsupportedOptimizer is returned for optimizer selections other
	// than Gauss-Newton, Levenberg-Marquardt and Dogleg.
	ErrUnsupportedOptimizer = errors.New("optimizer: unsupported optimizer type")

	// ErrDiverged is returned when no damping or trust region yields a
	// decrease in error.
	ErrDiverged = errors.New("optimizer: could not decrease error")
)
