// Package shape resolves the shape and shape mask of every mapped
// parameter and output in a pipeline, generation by generation, so the
// scheduler (§4.5) can size result arrays before any function runs.
package shape

import (
	"fmt"

	"github.com/pipedag-dev/pipedag/pkg/pipefunc"
	"github.com/pipedag-dev/pipedag/pkg/shapeutil"
)

// Resolution holds the shape and mask of every name that participates as
// a mapped array anywhere in a pipeline, keyed by parameter/output name.
// A mask entry is true at positions contributed by the mapspec's
// external axes and false at positions appended from an internal_shapes
// override.
type Resolution struct {
	Shapes map[string][]int
	Masks  map[string][]bool
}

// Resolve walks pipeline's topological generations and computes the
// shape of every parameter or output name referenced by any function's
// mapspec. inputs supplies the user-provided root values; internalShapes
// overrides the shape of outputs that cannot be inferred from mapspec
// algebra alone (an unmapped function that produces an array from a
// scalar, or a mapped function whose output carries extra dimensions
// beyond its external shape).
func Resolve(pipeline *pipefunc.Pipeline, inputs map[string]any, internalShapes map[string][]int) (*Resolution, error) {
	mapped := pipeline.MapspecNames()

	res := &Resolution{
		Shapes: make(map[string][]int, len(mapped)),
		Masks:  make(map[string][]bool, len(mapped)),
	}

	generations := pipeline.TopologicalGenerations()
	if len(generations) > 0 {
		resolveRootGeneration(generations[0], mapped, inputs, res)
	}

	for _, gen := range generations[1:] {
		for _, f := range gen.Funcs {
			err := resolveFunc(f, internalShapes, res)
			if err != nil {
				return nil, err
			}
		}
	}

	return res, nil
}

func resolveRootGeneration(gen pipefunc.Generation, mapped map[string]struct{}, inputs map[string]any, res *Resolution) {
	for _, name := range gen.RootArgs {
		if _, ok := mapped[name]; !ok {
			continue
		}

		value, ok := inputs[name]
		if !ok {
			continue
		}

		s := shapeutil.ShapeOf(value)
		res.Shapes[name] = s
		res.Masks[name] = allTrue(len(s))
	}
}

func resolveFunc(f *pipefunc.PipeFunc, internalShapes map[string][]int, res *Resolution) error {
	if f.MapSpec == nil {
		return resolveUnmappedFunc(f, internalShapes, res)
	}

	inputShapes := make(map[string][]int, len(f.MapSpec.Parameters()))

	for _, p := range f.MapSpec.Parameters() {
		s, ok := res.Shapes[p]
		if !ok {
			return fmt.Errorf("%w: %q (input to %q)", ErrMissingShape, p, f.Name)
		}

		inputShapes[p] = s
	}

	external, err := f.MapSpec.Shape(inputShapes)
	if err != nil {
		return fmt.Errorf("resolve shape for %q: %w", f.Name, err)
	}

	full, mask := applyInternalOverride(f.OutputNames, external, internalShapes)

	for _, name := range f.OutputNames {
		res.Shapes[name] = full
		res.Masks[name] = mask
	}

	return nil
}

// resolveUnmappedFunc records a shape for an unmapped function's output
// only when the output is itself consumed as a mapped array downstream
// and the caller supplied an internal_shapes override for it; an
// unmapped function that feeds only scalar parameters needs no entry.
func resolveUnmappedFunc(f *pipefunc.PipeFunc, internalShapes map[string][]int, res *Resolution) error {
	for _, name := range f.OutputNames {
		s, ok := internalShapes[name]
		if !ok {
			continue
		}

		res.Shapes[name] = s
		res.Masks[name] = allFalse(len(s))
	}

	return nil
}

// applyInternalOverride appends the first internal_shapes entry found
// across outputNames to external, marking external positions true and
// appended positions false. External dimensions always come first; the
// resolver exposes no way to interleave internal dimensions ahead of
// external ones, since Create's signature carries only a shape override
// and no parallel mask override.
func applyInternalOverride(outputNames []string, external []int, internalShapes map[string][]int) ([]int, []bool) {
	var internal []int

	for _, name := range outputNames {
		if s, ok := internalShapes[name]; ok {
			internal = s

			break
		}
	}

	if internal == nil {
		return external, allTrue(len(external))
	}

	full := make([]int, 0, len(external)+len(internal))
	full = append(full, external...)
	full = append(full, internal...)

	mask := append(allTrue(len(external)), allFalse(len(internal))...)

	return full, mask
}

func allTrue(n int) []bool {
	mask := make([]bool, n)
	for idx := range mask {
		mask[idx] = true
	}

	return mask
}

func allFalse(n int) []bool {
	return make([]bool, n)
}
