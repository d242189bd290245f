package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pipedag-dev/pipedag/pkg/mapspec"
	"github.com/pipedag-dev/pipedag/pkg/pipefunc"
	"github.com/pipedag-dev/pipedag/pkg/runinfo"
	"github.com/pipedag-dev/pipedag/pkg/scheduler"
	"github.com/pipedag-dev/pipedag/pkg/storage"
)

// buildCompletedRun runs a two-stage pipeline (a mapped "double" over x,
// then an unmapped "sum" of y) to completion under dir using a real
// file_array backend, so inspect/load can be exercised against the same
// on-disk layout a caller's own binary would leave behind.
func buildCompletedRun(t *testing.T, dir string, xs []int) string {
	t.Helper()

	spec, err := mapspec.Parse("x[i] -> y[i]")
	require.NoError(t, err)

	double := &pipefunc.PipeFunc{
		Name:        "double",
		Parameters:  []string{"x"},
		OutputNames: []string{"y"},
		MapSpec:     spec,
		Fn: func(kwargs map[string]any) (any, error) {
			return kwargs["x"].(int) * 2, nil
		},
	}

	sum := &pipefunc.PipeFunc{
		Name:        "sum",
		Parameters:  []string{"y"},
		OutputNames: []string{"total"},
		Fn: func(kwargs map[string]any) (any, error) {
			total := 0
			for _, v := range kwargs["y"].([]any) {
				total += v.(int)
			}

			return total, nil
		},
	}

	pipeline, err := pipefunc.NewPipeline([]*pipefunc.PipeFunc{double, sum})
	require.NoError(t, err)

	inputs := map[string]any{"x": xs}

	info, err := runinfo.Create(dir, pipeline, inputs, nil, storage.BackendFileArray, true)
	require.NoError(t, err)

	stores, err := info.InitStore()
	require.NoError(t, err)

	_, err = scheduler.Run(context.Background(), info, stores, inputs, scheduler.Options{
		Executor: scheduler.NewInlineExecutor(),
	})
	require.NoError(t, err)

	require.NoError(t, info.Dump(dir))

	return dir
}
