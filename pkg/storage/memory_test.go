package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipedag-dev/pipedag/pkg/persist"
)

func TestMemoryStore_DumpAndGet(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore([]int{2, 2})

	require.NoError(t, s.Dump([]int{1, 0}, "hello"))

	value, err := s.GetFromIndex(ravel([]int{2, 2}, []int{1, 0}))
	require.NoError(t, err)
	assert.Equal(t, "hello", value)
}

func TestMemoryStore_MissingCell(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore([]int{2})

	_, err := s.GetFromIndex(0)
	require.ErrorIs(t, err, ErrCellMissing)
}

func TestMemoryStore_NotParallelizable(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore([]int{1})
	assert.False(t, s.Parallelizable())
}

func TestMemoryStore_Persist_NoOpWithoutDir(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore([]int{1})
	assert.NoError(t, s.Persist())
}

func TestMemoryStore_Persist_FlushesToDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	s := NewMemoryStore([]int{2}).WithPersistDir(dir, persist.NewGobCodec())
	require.NoError(t, s.Dump([]int{0}, 10))
	require.NoError(t, s.Dump([]int{1}, 20))

	require.NoError(t, s.Persist())

	assert.FileExists(t, filepath.Join(dir, "0.gob"))
	assert.FileExists(t, filepath.Join(dir, "1.gob"))
}
