package mapspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *MapSpec {
	t.Helper()

	m, err := Parse(src)
	require.NoError(t, err)

	return m
}

func TestValidateConsistentAxes_OK(t *testing.T) {
	t.Parallel()

	specs := []*MapSpec{
		mustParse(t, "x[i] -> y[i]"),
		mustParse(t, "y[i] -> z[i]"),
	}

	assert.NoError(t, ValidateConsistentAxes(specs))
}

func TestValidateConsistentAxes_Conflict(t *testing.T) {
	t.Parallel()

	specs := []*MapSpec{
		mustParse(t, "x[i, j] -> y[i, j]"),
		mustParse(t, "y[j, i] -> z[j, i]"),
	}

	err := ValidateConsistentAxes(specs)
	require.ErrorIs(t, err, ErrAxisConflict)
}

func TestMapspecDimensions(t *testing.T) {
	t.Parallel()

	specs := []*MapSpec{
		mustParse(t, "x[i], y[i], z[j] -> r[i, j]"),
		mustParse(t, "r[i, :] -> s[i]"),
	}

	dims := MapspecDimensions(specs)
	assert.Equal(t, 1, dims["x"])
	assert.Equal(t, 1, dims["y"])
	assert.Equal(t, 1, dims["z"])
	assert.Equal(t, 2, dims["r"])
	assert.Equal(t, 1, dims["s"])
}
