package mapspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSpec_Shape_Zip(t *testing.T) {
	t.Parallel()

	m, err := Parse("x[i] -> y[i]")
	require.NoError(t, err)

	shape, err := m.Shape(map[string][]int{"x": {3}})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, shape)
}

func TestMapSpec_Shape_ZipPlusBroadcast(t *testing.T) {
	t.Parallel()

	m, err := Parse("x[i], y[i], z[j] -> r[i, j]")
	require.NoError(t, err)

	shape, err := m.Shape(map[string][]int{
		"x": {3},
		"y": {3},
		"z": {2},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, shape)
}

func TestMapSpec_Shape_ZipMismatch(t *testing.T) {
	t.Parallel()

	m, err := Parse("x[i], y[i] -> r[i]")
	require.NoError(t, err)

	_, err = m.Shape(map[string][]int{
		"x": {2},
		"y": {3},
	})
	require.ErrorIs(t, err, ErrAxisMismatch)
}

func TestMapSpec_Shape_MissingInputShape(t *testing.T) {
	t.Parallel()

	m, err := Parse("x[i] -> y[i]")
	require.NoError(t, err)

	_, err = m.Shape(map[string][]int{})
	require.ErrorIs(t, err, ErrAxisMismatch)
}

func TestMapSpec_Shape_ReductionAxis(t *testing.T) {
	t.Parallel()

	m, err := Parse("result[i, :] -> sum[i]")
	require.NoError(t, err)

	shape, err := m.Shape(map[string][]int{"result": {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, shape)
}

func TestMapSpec_InputKeys(t *testing.T) {
	t.Parallel()

	m, err := Parse("x[i], y[i], z[j] -> r[i, j]")
	require.NoError(t, err)

	shape := []int{3, 2}

	keys, err := m.InputKeys(shape, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, keys["x"])
	assert.Equal(t, []int{0}, keys["y"])
	assert.Equal(t, []int{1}, keys["z"])

	keys, err = m.InputKeys(shape, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, keys["x"])
	assert.Equal(t, []int{1}, keys["y"])
	assert.Equal(t, []int{1}, keys["z"])
}

func TestMapSpec_InputKeys_FullSlice(t *testing.T) {
	t.Parallel()

	m, err := Parse("result[i, :] -> sum[i]")
	require.NoError(t, err)

	keys, err := m.InputKeys([]int{3}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, FullSlice}, keys["result"])
}

func TestMapSpec_OutputKey(t *testing.T) {
	t.Parallel()

	m, err := Parse("x[i], z[j] -> r[i, j]")
	require.NoError(t, err)

	key, err := m.OutputKey([]int{3, 2}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, key)
}

func TestMapSpec_Shape_EmptyAxis(t *testing.T) {
	t.Parallel()

	m, err := Parse("x[i] -> y[i]")
	require.NoError(t, err)

	shape, err := m.Shape(map[string][]int{"x": {0}})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, shape)
}
