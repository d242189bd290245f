package storage

import "errors"

// Sentinel errors returned by this package.
var (
	// ErrUnknownBackend indicates an Open call with an unrecognised
	// storage_id.
	ErrUnknownBackend = errors.New("storage: unknown backend")
	// ErrShapeMismatch indicates an existing on-disk shape manifest
	// disagrees with the shape requested of a reopened store.
	ErrShapeMismatch = errors.New("storage: shape manifest mismatch")
	// ErrCellMissing indicates GetFromIndex was called for a cell that
	// has not yet been written.
	ErrCellMissing = errors.New("storage: cell missing")
	// ErrNotParallelizable indicates a parallel run was requested against
	// a storage backend that does not support concurrent access.
	ErrNotParallelizable = errors.New("storage: backend is not parallelizable")
)
