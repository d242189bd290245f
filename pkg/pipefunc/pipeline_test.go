package pipefunc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipedag-dev/pipedag/pkg/mapspec"
)

func TestNewPipeline_LinearChain(t *testing.T) {
	t.Parallel()

	a := &PipeFunc{Name: "a", Parameters: []string{"x"}, OutputNames: []string{"y"}}
	b := &PipeFunc{Name: "b", Parameters: []string{"y"}, OutputNames: []string{"z"}}

	p, err := NewPipeline([]*PipeFunc{a, b})
	require.NoError(t, err)

	gens := p.TopologicalGenerations()
	require.Len(t, gens, 3)
	assert.Equal(t, []string{"x"}, gens[0].RootArgs)
	assert.Equal(t, []*PipeFunc{a}, gens[1].Funcs)
	assert.Equal(t, []*PipeFunc{b}, gens[2].Funcs)
}

func TestNewPipeline_ParallelGeneration(t *testing.T) {
	t.Parallel()

	a := &PipeFunc{Name: "a", Parameters: []string{"x"}, OutputNames: []string{"y1"}}
	b := &PipeFunc{Name: "b", Parameters: []string{"x"}, OutputNames: []string{"y2"}}
	c := &PipeFunc{Name: "c", Parameters: []string{"y1", "y2"}, OutputNames: []string{"z"}}

	p, err := NewPipeline([]*PipeFunc{a, b, c})
	require.NoError(t, err)

	gens := p.TopologicalGenerations()
	require.Len(t, gens, 3)
	assert.Equal(t, []string{"x"}, gens[0].RootArgs)
	assert.ElementsMatch(t, []*PipeFunc{a, b}, gens[1].Funcs)
	assert.Equal(t, []*PipeFunc{c}, gens[2].Funcs)
}

func TestNewPipeline_CycleDetected(t *testing.T) {
	t.Parallel()

	a := &PipeFunc{Name: "a", Parameters: []string{"z"}, OutputNames: []string{"y"}}
	b := &PipeFunc{Name: "b", Parameters: []string{"y"}, OutputNames: []string{"z"}}

	_, err := NewPipeline([]*PipeFunc{a, b})
	require.ErrorIs(t, err, ErrCyclicGraph)
}

func TestNewPipeline_DuplicateOutput(t *testing.T) {
	t.Parallel()

	a := &PipeFunc{Name: "a", OutputNames: []string{"y"}}
	b := &PipeFunc{Name: "b", OutputNames: []string{"y"}}

	_, err := NewPipeline([]*PipeFunc{a, b})
	require.ErrorIs(t, err, ErrDuplicateOutput)
}

func TestNewPipeline_AxisConflictDetected(t *testing.T) {
	t.Parallel()

	specA, err := mapspec.Parse("x[i,j] -> y[i,j]")
	require.NoError(t, err)

	specB, err := mapspec.Parse("y[j,i] -> z[j,i]")
	require.NoError(t, err)

	a := &PipeFunc{Name: "a", Parameters: []string{"x"}, OutputNames: []string{"y"}, MapSpec: specA}
	b := &PipeFunc{Name: "b", Parameters: []string{"y"}, OutputNames: []string{"z"}, MapSpec: specB}

	_, err = NewPipeline([]*PipeFunc{a, b})
	require.ErrorIs(t, err, mapspec.ErrAxisConflict)
}

func TestPipeline_OutputToFunc(t *testing.T) {
	t.Parallel()

	a := &PipeFunc{Name: "a", OutputNames: []string{"y"}}

	p, err := NewPipeline([]*PipeFunc{a})
	require.NoError(t, err)

	f, err := p.OutputToFunc("y")
	require.NoError(t, err)
	assert.Same(t, a, f)

	_, err = p.OutputToFunc("missing")
	require.ErrorIs(t, err, ErrUnknownOutput)
}

func TestPipeline_RootArgs_Scoped(t *testing.T) {
	t.Parallel()

	a := &PipeFunc{Name: "a", Parameters: []string{"x"}, OutputNames: []string{"y"}}
	b := &PipeFunc{Name: "b", Parameters: []string{"w"}, OutputNames: []string{"z"}}

	p, err := NewPipeline([]*PipeFunc{a, b})
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, p.RootArgs(strPtr("y")))
	assert.ElementsMatch(t, []string{"x", "w"}, p.RootArgs(nil))
}

func TestPipeline_MapspecNames(t *testing.T) {
	t.Parallel()

	m, err := mapspec.Parse("x[i] -> y[i]")
	require.NoError(t, err)

	a := &PipeFunc{Name: "a", Parameters: []string{"x"}, OutputNames: []string{"y"}, MapSpec: m}

	p, err := NewPipeline([]*PipeFunc{a})
	require.NoError(t, err)

	_, ok := p.MapspecNames()["x"]
	assert.True(t, ok)
	_, ok = p.MapspecNames()["y"]
	assert.True(t, ok)
}

func TestPipeline_Defaults(t *testing.T) {
	t.Parallel()

	a := &PipeFunc{Name: "a", Parameters: []string{"x"}, OutputNames: []string{"y"}, Defaults: map[string]any{"x": 1}}

	p, err := NewPipeline([]*PipeFunc{a})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Defaults()["x"])
}

func TestWithBuilder(t *testing.T) {
	t.Parallel()

	p, err := WithBuilder(context.Background(), func(_ context.Context, b *Builder) error {
		b.Add(&PipeFunc{Name: "a", Parameters: []string{"x"}, OutputNames: []string{"y"}})

		return nil
	})
	require.NoError(t, err)
	assert.Len(t, p.Funcs(), 1)
}

func strPtr(s string) *string { return &s }
