package robot

import "errors"

var (
	// ErrUnknownLink indicates a link lookup by name or id that failed.
	ErrUnknownLink = errors.New("robot: unknown link")

	// ErrUnknownJoint indicates a joint lookup by name or id that failed.
	ErrUnknownJoint = errors.New("robot: unknown joint")

	// ErrInvalidModel indicates a structurally invalid link/joint set.
	ErrInvalidModel = errors.New("robot: invalid model")

	// ErrDimensionMismatch indicates a joint-indexed slice of the wrong length.
	ErrDimensionMismatch = errors.New("robot: joint vector length mismatch")
)
