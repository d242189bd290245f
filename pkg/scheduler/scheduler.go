// Package scheduler walks a pipeline's topological generations, running
// each function once (no mapspec) or fanning out one task per external
// cell (mapspec present), and writes results through the run's opened
// Storages. A generation barrier separates each layer: every task in
// generation N completes before generation N+1 is dispatched.
package scheduler

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pipedag-dev/pipedag/pkg/cache"
	"github.com/pipedag-dev/pipedag/pkg/mapspec"
	"github.com/pipedag-dev/pipedag/pkg/persist"
	"github.com/pipedag-dev/pipedag/pkg/pipefunc"
	"github.com/pipedag-dev/pipedag/pkg/runinfo"
	"github.com/pipedag-dev/pipedag/pkg/shapeutil"
	"github.com/pipedag-dev/pipedag/pkg/storage"
)

// outputsDir mirrors pkg/runinfo's layout; unmapped function outputs are
// flat "<name>.gob" files here, distinct from a mapped output's
// "<name>/" shard directory created by storage.Open.
const outputsDir = "outputs"

// Options configures one Run call.
type Options struct {
	// Executor dispatches tasks. Required.
	Executor Executor
	// Parallel, when true, requires every Storage in use to report
	// Parallelizable(); a non-parallelizable store then fails preflight.
	Parallel bool
	// BlobCache memoises root-input values by the identity of the blob
	// file RunInfo persisted them to, so a root input read by many cells
	// is fetched from the inputs map once rather than on every cell.
	BlobCache *cache.BlobCache
}

// Run executes every generation of info's pipeline in order, using
// stores (as returned by RunInfo.InitStore) for every mapped output and
// inputs for every root argument. It returns the value of every root
// argument and every unmapped function's output; mapped outputs live in
// their Storage and are read through stores by the caller.
func Run(ctx context.Context, info *runinfo.RunInfo, stores map[string]storage.Storage, inputs map[string]any, opts Options) (map[string]any, error) {
	if opts.BlobCache == nil {
		opts.BlobCache = cache.NewBlobCache(cache.DefaultCapacity)
	}

	pipeline := info.Pipeline()

	err := preflight(pipeline, stores, inputs, opts.Parallel)
	if err != nil {
		return nil, err
	}

	r := &runner{
		info:    info,
		stores:  stores,
		inputs:  inputs,
		shapes:  info.Shapes(),
		masks:   info.ShapeMasks(),
		results: make(map[string]any),
		opts:    opts,
	}

	generations := pipeline.TopologicalGenerations()

	for _, name := range generations[0].RootArgs {
		value, loadErr := r.loadRootInput(name)
		if loadErr != nil {
			return nil, loadErr
		}

		r.results[name] = value
	}

	for _, gen := range generations[1:] {
		err := r.runGeneration(ctx, gen)
		if err != nil {
			return nil, err
		}
	}

	return r.results, nil
}

// preflight fails with ErrParallelismUnsupported when parallel is set and
// any store in use is not Parallelizable, and with ErrMissingInputs when a
// root argument has neither an input value nor a pipeline default.
func preflight(pipeline *pipefunc.Pipeline, stores map[string]storage.Storage, inputs map[string]any, parallel bool) error {
	if parallel {
		for name, store := range stores {
			if !store.Parallelizable() {
				return fmt.Errorf("%w: %q", ErrParallelismUnsupported, name)
			}
		}
	}

	defaults := pipeline.Defaults()

	for _, name := range pipeline.RootArgs(nil) {
		_, hasInput := inputs[name]
		_, hasDefault := defaults[name]

		if !hasInput && !hasDefault {
			return fmt.Errorf("%w: %q", ErrMissingInputs, name)
		}
	}

	return nil
}

// runner holds the state threaded through one Run call.
type runner struct {
	info    *runinfo.RunInfo
	stores  map[string]storage.Storage
	inputs  map[string]any
	shapes  map[string][]int
	masks   map[string][]bool
	results map[string]any
	opts    Options
}

func (r *runner) loadRootInput(name string) (any, error) {
	relPath, persisted := r.info.Manifest().Inputs[name]
	if !persisted {
		value, ok := r.inputs[name]
		if !ok {
			return pipefuncDefault(r.info.Pipeline(), name)
		}

		return value, nil
	}

	path := filepath.Join(r.info.Manifest().RunFolder, relPath)

	key, err := cache.KeyForFile(path)
	if err != nil {
		return nil, fmt.Errorf("stat root input %q: %w", name, err)
	}

	if cached, ok := r.opts.BlobCache.Get(key); ok {
		return cached, nil
	}

	value, ok := r.inputs[name]
	if !ok {
		return pipefuncDefault(r.info.Pipeline(), name)
	}

	r.opts.BlobCache.Put(key, value)

	return value, nil
}

func pipefuncDefault(pipeline *pipefunc.Pipeline, name string) (any, error) {
	value, ok := pipeline.Defaults()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingInputs, name)
	}

	return value, nil
}

func (r *runner) runGeneration(ctx context.Context, gen pipefunc.Generation) error {
	for _, f := range gen.Funcs {
		var err error
		if f.MapSpec == nil {
			err = r.runUnmapped(ctx, f)
		} else {
			err = r.runMapped(ctx, f)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// resolveParam returns the value bound to parameter name, either the
// whole upstream Storage materialised into a nested slice, or an
// already-resolved scalar/aggregate from r.results.
func (r *runner) resolveParam(name string) (any, error) {
	store, ok := r.stores[name]
	if !ok {
		value, ok := r.results[name]
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q has no resolved value", ErrMissingInputs, name)
		}

		return value, nil
	}

	view := store.ToArray()

	nested, err := gatherCell(store.Shape(), fullSliceKey(len(store.Shape())), func(key []int) (any, error) {
		return view.At(key)
	})
	if err != nil {
		return nil, fmt.Errorf("materialise %q: %w", name, err)
	}

	return nested, nil
}

func fullSliceKey(n int) []int {
	key := make([]int, n)
	for i := range key {
		key[i] = mapspec.FullSlice
	}

	return key
}

// runUnmapped runs f once for the whole pipeline, persisting its output
// under outputs/<name>.gob so a later run with cleanup=false can skip
// recomputing it.
func (r *runner) runUnmapped(ctx context.Context, f *pipefunc.PipeFunc) error {
	codec := persist.NewGobCodec()
	outDir := filepath.Join(r.info.Manifest().RunFolder, outputsDir)

	cached := make(map[string]any, len(f.OutputNames))
	allCached := true

	for _, name := range f.OutputNames {
		var value any

		err := persist.LoadState(outDir, name, codec, &value)
		if err != nil {
			allCached = false

			break
		}

		cached[name] = value
	}

	if allCached {
		for name, value := range cached {
			r.results[name] = value
		}

		return nil
	}

	kwargs := make(map[string]any, len(f.Parameters))

	for _, p := range f.Parameters {
		value, err := r.resolveParam(p)
		if err != nil {
			return err
		}

		kwargs[p] = value
	}

	future := r.opts.Executor.Submit(ctx, func(ctx context.Context) (any, error) {
		return f.Call(kwargs)
	})

	value, err := future.Result()
	if err != nil {
		return &FunctionError{Function: f.Name, Index: NonCellIndex, Kwargs: kwargs, Err: err}
	}

	outputs, ok := value.(map[string]any)
	if !ok {
		return &FunctionError{Function: f.Name, Index: NonCellIndex, Kwargs: kwargs, Err: fmt.Errorf("%w: unexpected result type", ErrMissingInputs)}
	}

	for name, out := range outputs {
		err := persist.SaveState(outDir, name, codec, &out)
		if err != nil {
			return fmt.Errorf("persist output %q: %w", name, err)
		}

		r.results[name] = out
	}

	return nil
}

// runMapped fans out one task per missing external cell of f, per §4.5:
// cells whose output is already present in every output Storage are
// never recomputed, giving a resumed run exactly-once-per-cell semantics.
func (r *runner) runMapped(ctx context.Context, f *pipefunc.PipeFunc) error {
	primary := f.OutputNames[0]

	fullShape, ok := r.shapes[primary]
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingShape, primary)
	}

	mask, ok := r.masks[primary]
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingShape, primary)
	}

	externalShape, internalShape := splitByMask(fullShape, mask)
	internalSize := product(internalShape)

	maskLinear := r.stores[primary].MaskLinear()

	externalTotal := product(externalShape)

	mapspecParams := make(map[string]bool, len(f.MapSpec.Parameters()))
	for _, name := range f.MapSpec.Parameters() {
		mapspecParams[name] = true
	}

	futures := make([]Future, 0, externalTotal)
	indices := make([]int, 0, externalTotal)

	for linear := range externalTotal {
		base := linear * internalSize

		missing := false

		for _, m := range maskLinear[base : base+internalSize] {
			if m {
				missing = true

				break
			}
		}

		if !missing {
			continue
		}

		kwargs, err := r.cellKwargs(f, mapspecParams, externalShape, linear)
		if err != nil {
			return err
		}

		future := r.opts.Executor.Submit(ctx, func(ctx context.Context) (any, error) {
			return f.Call(kwargs)
		})

		futures = append(futures, future)
		indices = append(indices, linear)
	}

	return r.drainCellFutures(f, futures, indices, externalShape, internalShape)
}

// drainCellFutures waits for every submitted cell and writes its output,
// draining the rest of the generation's already-submitted work before
// returning the first error so no new submissions are made afterward.
func (r *runner) drainCellFutures(f *pipefunc.PipeFunc, futures []Future, indices []int, externalShape, internalShape []int) error {
	var firstErr error

	for i, future := range futures {
		value, err := future.Result()
		if err != nil {
			if firstErr == nil {
				firstErr = &FunctionError{Function: f.Name, Index: indices[i], Err: err}
			}

			continue
		}

		if firstErr != nil {
			continue
		}

		outputs, ok := value.(map[string]any)
		if !ok {
			firstErr = &FunctionError{Function: f.Name, Index: indices[i], Err: fmt.Errorf("%w: unexpected result type", ErrMissingInputs)}

			continue
		}

		extKey, err := f.MapSpec.OutputKey(externalShape, indices[i])
		if err != nil {
			firstErr = err

			continue
		}

		for name, out := range outputs {
			store, ok := r.stores[name]
			if !ok {
				continue
			}

			err := dumpCell(store, internalShape, extKey, out)
			if err != nil {
				firstErr = fmt.Errorf("dump %q cell %d: %w", name, indices[i], err)
			}
		}
	}

	return firstErr
}

func (r *runner) cellKwargs(f *pipefunc.PipeFunc, mapspecParams map[string]bool, externalShape []int, linear int) (map[string]any, error) {
	keys, err := f.MapSpec.InputKeys(externalShape, linear)
	if err != nil {
		return nil, err
	}

	kwargs := make(map[string]any, len(f.Parameters))

	for _, p := range f.Parameters {
		if !mapspecParams[p] {
			value, err := r.resolveParam(p)
			if err != nil {
				return nil, err
			}

			kwargs[p] = value

			continue
		}

		value, err := r.cellParam(p, keys[p])
		if err != nil {
			return nil, err
		}

		kwargs[p] = value
	}

	return kwargs, nil
}

// cellParam resolves one mapspec-bound parameter's value for a single
// cell: read through the upstream Storage if p is itself a mapped
// output, otherwise index into the plain in-memory value (a root input
// or an unmapped function's output).
func (r *runner) cellParam(p string, key []int) (any, error) {
	if store, ok := r.stores[p]; ok {
		view := store.ToArray()

		return gatherCell(store.Shape(), key, func(full []int) (any, error) {
			return view.At(full)
		})
	}

	value, ok := r.results[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingInputs, p)
	}

	return gatherCell(shapeutil.ShapeOf(value), key, func(full []int) (any, error) {
		return shapeutil.Index(value, full)
	})
}

// dumpCell writes value to store at externalKey, exploding it across
// every internal cell when internalShape is non-empty.
func dumpCell(store storage.Storage, internalShape, externalKey []int, value any) error {
	if len(internalShape) == 0 {
		return store.Dump(externalKey, value)
	}

	return walkShape(internalShape, func(internalKey []int) error {
		leaf, err := shapeutil.Index(value, internalKey)
		if err != nil {
			return err
		}

		fullKey := make([]int, 0, len(externalKey)+len(internalKey))
		fullKey = append(fullKey, externalKey...)
		fullKey = append(fullKey, internalKey...)

		return store.Dump(fullKey, leaf)
	})
}

// splitByMask partitions fullShape into its external (mask true) and
// internal (mask false) dimensions. pkg/shape always produces a
// true-then-false mask (external dims first, internal dims appended), so
// the two halves are contiguous; see pkg/shape's resolver for why
// interleaved masks are not supported.
func splitByMask(fullShape []int, mask []bool) (external, internal []int) {
	for idx, isExternal := range mask {
		if isExternal {
			external = append(external, fullShape[idx])
		} else {
			internal = append(internal, fullShape[idx])
		}
	}

	return external, internal
}

func product(shape []int) int {
	total := 1
	for _, dim := range shape {
		total *= dim
	}

	return total
}
