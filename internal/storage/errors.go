package storage

import "errors"

// Domain errors for blob storage.
var (
	// ErrIO wraps any failure of the underlying backend.
	ErrIO = errors.New("storage: i/o failure")

	// ErrUnsupportedVersion is returned when the stored blob was written by a
	// newer schema than this build understands.
	ErrUnsupportedVersion = errors.New("storage: unsupported version")

	// ErrCorrupt is returned when a stored blob cannot be decoded.
	ErrCorrupt = errors.New("storage: corrupt blob")
)
