// Package pipedag runs a pipeline of pure functions, wired into a DAG by
// shared parameter/output names, over multi-dimensional parameter
// sweeps with per-axis broadcasting and zipping semantics. It resolves
// shapes, schedules invocations in topological generations, fans out
// independent map-cell evaluations across a worker pool, and persists
// both intermediate and final outputs to a run folder so partial runs
// can resume and results can be reloaded later.
package pipedag

import (
	"context"
	"fmt"

	"github.com/pipedag-dev/pipedag/pkg/budget"
	"github.com/pipedag-dev/pipedag/pkg/cache"
	"github.com/pipedag-dev/pipedag/pkg/pipefunc"
	"github.com/pipedag-dev/pipedag/pkg/runinfo"
	"github.com/pipedag-dev/pipedag/pkg/scheduler"
	"github.com/pipedag-dev/pipedag/pkg/storage"
)

// Result is the outcome recorded for one pipeline output: the function
// that produced it, the kwargs it was called with (nil for a mapped
// output, whose cells are each called with their own kwargs), the
// output's name, its value (nil for a mapped output — read Store
// instead), and a lookup-only reference to its backing Storage (nil for
// an unmapped output, which has none).
type Result struct {
	Function   string
	Kwargs     map[string]any
	OutputName string
	Output     any
	Store      storage.Storage
}

// runOptions holds Run's configurable behavior; zero value is not valid,
// use newRunOptions.
type runOptions struct {
	parallel      bool
	executor      scheduler.Executor
	storageID     string
	persistMemory bool
	cleanup       bool
	memoryBudget  string
}

func newRunOptions() runOptions {
	return runOptions{
		parallel:      true,
		storageID:     storage.BackendFileArray,
		persistMemory: true,
		cleanup:       true,
	}
}

// RunOption configures one Run call.
type RunOption func(*runOptions)

// WithParallel toggles concurrent cell execution (default true).
func WithParallel(parallel bool) RunOption {
	return func(o *runOptions) { o.parallel = parallel }
}

// WithExecutor supplies the Executor cell and unmapped-function tasks
// are submitted to. When unset, Run derives a PoolExecutor (or, if
// parallel is false, an InlineExecutor) sized by WithMemoryBudget.
func WithExecutor(executor scheduler.Executor) RunOption {
	return func(o *runOptions) { o.executor = executor }
}

// WithStorage selects the storage_id new Storages are opened with
// (default storage.BackendFileArray).
func WithStorage(storageID string) RunOption {
	return func(o *runOptions) { o.storageID = storageID }
}

// WithPersistMemory toggles flushing memory-backed storage to disk
// after the run completes (default true). A no-op for file-backed
// storage, which is already durable on every cell write.
func WithPersistMemory(persist bool) RunOption {
	return func(o *runOptions) { o.persistMemory = persist }
}

// WithCleanup toggles removing a prior run's functions/, inputs/, and
// outputs/ subfolders before this run starts (default true). Set false
// to resume a previous, partially-completed run.
func WithCleanup(cleanup bool) RunOption {
	return func(o *runOptions) { o.cleanup = cleanup }
}

// WithMemoryBudget sizes the default worker pool and blob cache via
// pkg/budget.Solve (e.g. "2GiB"). If WithExecutor is also given, the
// budget sizes only the blob cache.
func WithMemoryBudget(budgetStr string) RunOption {
	return func(o *runOptions) { o.memoryBudget = budgetStr }
}

// Run resolves pipeline against inputs, freezes a RunInfo under
// runFolder, opens one Storage per mapped output, and walks every
// topological generation to completion. It returns one Result per
// pipeline-produced output name (root inputs are not included).
func Run(
	ctx context.Context,
	pipeline *pipefunc.Pipeline,
	inputs map[string]any,
	runFolder string,
	internalShapes map[string][]int,
	opts ...RunOption,
) (map[string]Result, error) {
	options := newRunOptions()
	for _, opt := range opts {
		opt(&options)
	}

	plan, err := resolvePlan(options.memoryBudget)
	if err != nil {
		return nil, fmt.Errorf("resolve memory budget: %w", err)
	}

	info, err := runinfo.Create(runFolder, pipeline, inputs, internalShapes, options.storageID, options.cleanup)
	if err != nil {
		return nil, fmt.Errorf("create run info: %w", err)
	}

	err = info.Dump(runFolder)
	if err != nil {
		return nil, fmt.Errorf("write run info: %w", err)
	}

	stores, err := info.InitStore()
	if err != nil {
		return nil, fmt.Errorf("open storages: %w", err)
	}

	executor := options.executor
	if executor == nil {
		executor = defaultExecutor(options.parallel, plan.Workers)
		defer executor.Close()
	}

	results, err := scheduler.Run(ctx, info, stores, inputs, scheduler.Options{
		Executor:  executor,
		Parallel:  options.parallel,
		BlobCache: cache.NewBlobCache(plan.InputBlobCacheEntries),
	})
	if err != nil {
		return nil, err
	}

	if options.persistMemory {
		for name, store := range stores {
			err := store.Persist()
			if err != nil {
				return nil, fmt.Errorf("persist storage %q: %w", name, err)
			}
		}
	}

	return assembleResults(pipeline, stores, results), nil
}

func resolvePlan(budgetStr string) (budget.Plan, error) {
	if budgetStr == "" {
		return budget.DefaultPlan(), nil
	}

	return budget.Solve(budgetStr)
}

func defaultExecutor(parallel bool, workers int) scheduler.Executor {
	if !parallel {
		return scheduler.NewInlineExecutor()
	}

	return scheduler.NewPoolExecutor(workers)
}

// assembleResults builds one Result per output name any PipeFunc in
// pipeline produces. Mapped outputs carry their Storage and a nil
// Output/Kwargs (the caller reads cells through Store, or calls
// LoadOutputs to materialise the whole array); unmapped outputs carry
// their single computed value and the kwargs it was computed from.
func assembleResults(pipeline *pipefunc.Pipeline, stores map[string]storage.Storage, values map[string]any) map[string]Result {
	out := make(map[string]Result)

	for _, f := range pipeline.Funcs() {
		for _, name := range f.OutputNames {
			store, mapped := stores[name]
			if mapped {
				out[name] = Result{Function: f.Name, OutputName: name, Store: store}

				continue
			}

			out[name] = Result{
				Function:   f.Name,
				Kwargs:     kwargsFrom(f, values),
				OutputName: name,
				Output:     values[name],
			}
		}
	}

	return out
}

// kwargsFrom reconstructs the kwargs bundle an unmapped function was
// called with, best-effort, from the root inputs and unmapped outputs
// scheduler.Run resolved. A parameter bound to a mapped (Storage-backed)
// output is omitted, since its value was a whole-array view rather than
// a single recorded kwarg.
func kwargsFrom(f *pipefunc.PipeFunc, values map[string]any) map[string]any {
	kwargs := make(map[string]any, len(f.Parameters))

	for _, p := range f.Parameters {
		if value, ok := values[p]; ok {
			kwargs[p] = value
		}
	}

	return kwargs
}

// LoadOutputs returns, in order, the value of every named output from a
// completed run: the scalar value for an unmapped output, or the fully
// materialised nested-slice array for a mapped output.
func LoadOutputs(runFolder string, pipeline *pipefunc.Pipeline, names ...string) ([]any, error) {
	info, err := runinfo.Load(runFolder, pipeline)
	if err != nil {
		return nil, fmt.Errorf("load run info: %w", err)
	}

	stores, err := info.InitStore()
	if err != nil {
		return nil, fmt.Errorf("open storages: %w", err)
	}

	outputs := make([]any, len(names))

	for idx, name := range names {
		store, mapped := stores[name]
		if !mapped {
			value, err := runinfo.LoadUnmappedOutput(runFolder, name)
			if err != nil {
				return nil, fmt.Errorf("load output %q: %w", name, err)
			}

			outputs[idx] = value

			continue
		}

		nested, err := materialize(store)
		if err != nil {
			return nil, fmt.Errorf("materialise output %q: %w", name, err)
		}

		outputs[idx] = nested
	}

	return outputs, nil
}

// materialize reads every cell of store into a nested []any of the same
// shape, the N-D equivalent of LazyArray.ToSlice.
func materialize(store storage.Storage) (any, error) {
	shape := store.Shape()
	view := store.ToArray()

	return materializeAxis(shape, 0, nil, view)
}

func materializeAxis(shape []int, axis int, prefix []int, view *storage.LazyArray) (any, error) {
	if axis == len(shape) {
		key := make([]int, len(prefix))
		copy(key, prefix)

		return view.At(key)
	}

	extent := shape[axis]
	result := make([]any, extent)

	for idx := range extent {
		value, err := materializeAxis(shape, axis+1, append(prefix, idx), view) //nolint:makezero // append grows along one recursive path only
		if err != nil {
			return nil, err
		}

		result[idx] = value
	}

	return result, nil
}
