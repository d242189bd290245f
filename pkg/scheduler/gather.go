package scheduler

import "github.com/pipedag-dev/pipedag/pkg/mapspec"

// gatherCell resolves one per-cell value for a mapspec input parameter.
// key holds one entry per axis of that parameter, either a concrete
// index or mapspec.FullSlice; get fetches the scalar at a fully-resolved
// key. Axes at mapspec.FullSlice are walked in full and assembled into a
// nested []any in axis order, giving the callee the whole sub-array the
// ":" reduce sentinel asks for.
func gatherCell(shape, key []int, get func([]int) (any, error)) (any, error) {
	return gatherAxis(shape, key, 0, nil, get)
}

func gatherAxis(shape, key []int, axis int, prefix []int, get func([]int) (any, error)) (any, error) {
	if axis == len(shape) {
		full := make([]int, len(prefix))
		copy(full, prefix)

		return get(full)
	}

	if key[axis] != mapspec.FullSlice {
		return gatherAxis(shape, key, axis+1, append(prefix, key[axis]), get) //nolint:makezero // append grows along one recursive path only
	}

	extent := shape[axis]
	result := make([]any, extent)

	for idx := range extent {
		value, err := gatherAxis(shape, key, axis+1, append(prefix, idx), get) //nolint:makezero // append grows along one recursive path only
		if err != nil {
			return nil, err
		}

		result[idx] = value
	}

	return result, nil
}

// walkShape invokes fn once for every multi-index key into shape, in
// row-major order, the same enumeration order Storage cells use.
func walkShape(shape []int, fn func(key []int) error) error {
	total := 1
	for _, dim := range shape {
		total *= dim
	}

	key := make([]int, len(shape))

	for linear := range total {
		remaining := linear

		for idx := len(shape) - 1; idx >= 0; idx-- {
			dim := shape[idx]
			if dim == 0 {
				key[idx] = 0

				continue
			}

			key[idx] = remaining % dim
			remaining /= dim
		}

		err := fn(append([]int{}, key...))
		if err != nil {
			return err
		}
	}

	return nil
}
