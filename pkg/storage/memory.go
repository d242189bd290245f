package storage

import (
	"fmt"
	"sync"

	"github.com/pipedag-dev/pipedag/pkg/persist"
)

// MemoryStore holds cells in an in-process map, keyed by their linear
// index. It is not safe for concurrent workers to Dump distinct keys
// (Parallelizable reports false) and exists for tests and small
// pipelines that do not need resumability.
type MemoryStore struct {
	mu    sync.RWMutex
	shape []int
	cells map[int]any

	persistDir string
	codec      persist.Codec
}

// NewMemoryStore returns an empty in-process store for shape.
func NewMemoryStore(shape []int) *MemoryStore {
	return &MemoryStore{shape: shape, cells: make(map[int]any)}
}

// WithPersistDir configures m so that Persist writes every held cell to
// root using codec's on-disk layout (the same one FileArrayStore uses),
// then returns m for chaining.
func (m *MemoryStore) WithPersistDir(root string, codec persist.Codec) *MemoryStore {
	m.persistDir = root
	m.codec = codec

	return m
}

// Shape implements Storage.
func (m *MemoryStore) Shape() []int {
	return m.shape
}

// Dump implements Storage.
func (m *MemoryStore) Dump(key []int, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cells[ravel(m.shape, key)] = value

	return nil
}

// GetFromIndex implements Storage.
func (m *MemoryStore) GetFromIndex(linearIndex int) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.cells[linearIndex]
	if !ok {
		return nil, fmt.Errorf("%w: linear index %d", ErrCellMissing, linearIndex)
	}

	return value, nil
}

// MaskLinear implements Storage.
func (m *MemoryStore) MaskLinear() []bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := size(m.shape)
	mask := make([]bool, total)

	for idx := range total {
		_, ok := m.cells[idx]
		mask[idx] = !ok
	}

	return mask
}

// ToArray implements Storage.
func (m *MemoryStore) ToArray() *LazyArray {
	return newLazyArray(m)
}

// Parallelizable implements Storage: the shared map requires external
// synchronization for concurrent distinct-key writers, so this backend
// is not offered to a parallel scheduler.
func (m *MemoryStore) Parallelizable() bool {
	return false
}

// Persist implements Storage: if WithPersistDir was configured, every
// held cell is written to disk using the same per-cell blob layout
// FileArrayStore uses; otherwise this is a no-op.
func (m *MemoryStore) Persist() error {
	if m.persistDir == "" {
		return nil
	}

	disk, err := OpenFileArray(m.persistDir, m.shape, BackendMemory, m.codec)
	if err != nil {
		return fmt.Errorf("open persist directory: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for linearIndex, value := range m.cells {
		key := unravel(m.shape, linearIndex)

		err := disk.Dump(key, value)
		if err != nil {
			return fmt.Errorf("persist cell %v: %w", key, err)
		}
	}

	return nil
}
