package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipedag-dev/pipedag/pkg/persist"
)

func TestFileArrayStore_DumpAndGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	s, err := OpenFileArray(dir, []int{2, 3}, "test", persist.NewGobCodec())
	require.NoError(t, err)

	require.NoError(t, s.Dump([]int{0, 1}, 42))

	value, err := s.GetFromIndex(ravel([]int{2, 3}, []int{0, 1}))
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestFileArrayStore_MaskLinear(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	s, err := OpenFileArray(dir, []int{2, 2}, "test", persist.NewGobCodec())
	require.NoError(t, err)

	require.NoError(t, s.Dump([]int{0, 0}, "a"))
	require.NoError(t, s.Dump([]int{1, 1}, "d"))

	mask := s.MaskLinear()
	require.Len(t, mask, 4)
	assert.False(t, mask[ravel([]int{2, 2}, []int{0, 0})])
	assert.True(t, mask[ravel([]int{2, 2}, []int{0, 1})])
	assert.True(t, mask[ravel([]int{2, 2}, []int{1, 0})])
	assert.False(t, mask[ravel([]int{2, 2}, []int{1, 1})])
}

func TestFileArrayStore_MissingCell(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	s, err := OpenFileArray(dir, []int{2}, "test", persist.NewGobCodec())
	require.NoError(t, err)

	_, err = s.GetFromIndex(0)
	require.ErrorIs(t, err, ErrCellMissing)
}

func TestFileArrayStore_ReopenAgreesOnShape(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := OpenFileArray(dir, []int{3}, "test", persist.NewGobCodec())
	require.NoError(t, err)

	_, err = OpenFileArray(dir, []int{3}, "test", persist.NewGobCodec())
	require.NoError(t, err)
}

func TestFileArrayStore_ReopenDisagreesOnShape(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := OpenFileArray(dir, []int{3}, "test", persist.NewGobCodec())
	require.NoError(t, err)

	_, err = OpenFileArray(dir, []int{4}, "test", persist.NewGobCodec())
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestFileArrayStore_Parallelizable(t *testing.T) {
	t.Parallel()

	s, err := OpenFileArray(t.TempDir(), []int{1}, "test", persist.NewGobCodec())
	require.NoError(t, err)
	assert.True(t, s.Parallelizable())
	assert.NoError(t, s.Persist())
}

func TestOpen_UnknownBackend(t *testing.T) {
	t.Parallel()

	_, err := Open("s3", t.TempDir(), []int{1}, "test")
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestOpen_Dispatch(t *testing.T) {
	t.Parallel()

	fileStore, err := Open(BackendFileArray, t.TempDir(), []int{1}, "test")
	require.NoError(t, err)
	assert.True(t, fileStore.Parallelizable())

	memStore, err := Open(BackendMemory, "", []int{1}, "test")
	require.NoError(t, err)
	assert.False(t, memStore.Parallelizable())
}
