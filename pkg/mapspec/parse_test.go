package mapspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []string{
		"x[i] -> y[i]",
		"x[i], y[i], z[j] -> r[i, j]",
		"a[i, j] -> b[i, j]",
		"result[i, :] -> sum[i]",
	}

	for _, src := range tests {
		src := src
		t.Run(src, func(t *testing.T) {
			t.Parallel()

			m, err := Parse(src)
			require.NoError(t, err)
			assert.Equal(t, src, m.String())
		})
	}
}

func TestParse_WhitespaceInsensitive(t *testing.T) {
	t.Parallel()

	m, err := Parse("x[i],y[i]->z[i]")
	require.NoError(t, err)
	assert.Equal(t, "x[i], y[i] -> z[i]", m.String())
}

func TestParse_MultiOutput(t *testing.T) {
	t.Parallel()

	m, err := Parse("a[i] -> b[i], c[i]")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, m.Parameters())
	assert.Equal(t, []string{"b", "c"}, m.OutputNames())
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing arrow":        "x[i]",
		"empty axes":           "x[] -> y[i]",
		"unknown character":    "x[i] -> y[i] $",
		"unbound output axis":  "x[i] -> y[j]",
		"reduce in output":     "x[i] -> y[:]",
		"mismatched multi-out": "x[i, j] -> y[i, j], z[i]",
	}

	for name, src := range tests {
		name, src := name, src
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(src)
			require.Error(t, err)
		})
	}
}

func TestMapSpec_Parameters(t *testing.T) {
	t.Parallel()

	m, err := Parse("x[i], y[i], z[j] -> r[i, j]")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, m.Parameters())
}
