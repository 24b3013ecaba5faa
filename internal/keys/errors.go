package keys

import "errors"

var (
	// ErrKeyOutOfRange indicates an id or time index that does not fit its bit field.
	ErrKeyOutOfRange = errors.New("keys: field out of range")

	// ErrUnknownKind indicates a kind byte with no registered symbol.
	ErrUnknownKind = errors.New("keys: unknown kind")
)
