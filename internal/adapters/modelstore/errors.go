package modelstore

import "errors"

var (
	// ErrNotFound is returned when no model (or the requested version) exists.
	ErrNotFound = errors.New("model not found")
	// ErrCorrupted is returned when an artifact file cannot be decoded.
	ErrCorrupted = errors.New("model artifact is corrupted")
	// ErrIncompatibleVersion is returned for an unknown artifact schema.
	ErrIncompatibleVersion = errors.New("model artifact schema is incompatible")
	// ErrInvalidVersion is returned for a malformed version tag.
	ErrInvalidVersion = errors.New("invalid model version")
)
