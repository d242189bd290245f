// Package storage implements the per-mapspec-output array stores a run
// reads and writes cell blobs through: a file-backed variant for
// parallel, resumable runs and an in-process variant for tests and small
// pipelines.
package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pipedag-dev/pipedag/pkg/persist"
)

// Backend identifiers accepted by Open.
const (
	BackendFileArray = "file_array"
	BackendMemory    = "memory"
)

// Storage backs one mapspec-produced output array. Cells are addressed
// by their multi-index key into Shape(); a cell that has never been
// Dump-ed is "missing" and reported as such by MaskLinear.
type Storage interface {
	// Shape returns the full (external ⊗ internal) shape this store was
	// opened with.
	Shape() []int
	// Dump writes value at the cell addressed by key.
	Dump(key []int, value any) error
	// GetFromIndex deserializes the cell at the position linearIndex
	// unravels to against Shape().
	GetFromIndex(linearIndex int) (any, error)
	// MaskLinear returns, ordered by linear index over Shape(), true for
	// every cell that is still missing and must be (re)computed.
	MaskLinear() []bool
	// ToArray returns a lazy N-D view over the store's cells.
	ToArray() *LazyArray
	// Parallelizable reports whether concurrent Dump/GetFromIndex calls
	// against disjoint keys are safe.
	Parallelizable() bool
	// Persist flushes any in-memory contents to durable storage. A no-op
	// for backends that are already durable on every Dump.
	Persist() error
}

// Open constructs a Storage of the given backend, rooted at path (for
// file_array) with the given shape, identified by storageID for error
// messages and manifest metadata.
func Open(backend, path string, shape []int, storageID string) (Storage, error) {
	switch backend {
	case BackendFileArray:
		return OpenFileArray(path, shape, storageID, persist.NewLZ4Codec(persist.NewGobCodec()))
	case BackendMemory:
		return NewMemoryStore(shape), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// size returns the number of cells implied by shape (1 for a 0-d shape).
func size(shape []int) int {
	total := 1
	for _, dim := range shape {
		total *= dim
	}

	return total
}

// unravel converts a linear index into a multi-index against shape, in
// row-major order, matching pkg/mapspec's own convention.
func unravel(shape []int, linearIndex int) []int {
	key := make([]int, len(shape))
	remaining := linearIndex

	for idx := len(shape) - 1; idx >= 0; idx-- {
		dim := shape[idx]
		if dim == 0 {
			continue
		}

		key[idx] = remaining % dim
		remaining /= dim
	}

	return key
}

// ravel converts a multi-index key into a linear index against shape.
func ravel(shape, key []int) int {
	linear := 0

	for idx, dim := range shape {
		linear = linear*dim + key[idx]
	}

	return linear
}

// keyString renders a multi-index key as its on-disk path component,
// e.g. []int{0, 1, 2} -> "0/1/2".
func keyString(key []int) string {
	if len(key) == 0 {
		return "0"
	}

	parts := make([]string, len(key))
	for idx, k := range key {
		parts[idx] = strconv.Itoa(k)
	}

	return strings.Join(parts, "/")
}
