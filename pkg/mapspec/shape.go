package mapspec

import "fmt"

// FullSlice is the sentinel index emitted by InputKeys for an axis
// position declared with the reduce sentinel ":" — the whole dimension
// is forwarded to the callee rather than a single scalar position.
const FullSlice = -1

// externalAxes returns the canonical ordered list of axis names that
// define the mapspec's external iteration space. All outputs share this
// tuple (enforced at parse time), so the first output's axes are used.
func (m *MapSpec) externalAxes() []string {
	if len(m.Outputs) == 0 {
		return nil
	}

	return m.Outputs[0].Axes
}

// Shape computes the output shape implied by the given input shapes.
// For every output axis name it locates a matching input occurrence and
// takes that input's extent at the matching position; axis names
// repeated across inputs must agree on their extent everywhere they
// occur, or ErrAxisMismatch is returned.
func (m *MapSpec) Shape(inputShapes map[string][]int) ([]int, error) {
	extents, err := m.axisExtents(inputShapes)
	if err != nil {
		return nil, err
	}

	external := m.externalAxes()
	shape := make([]int, len(external))

	for idx, axis := range external {
		extent, ok := extents[axis]
		if !ok {
			return nil, fmt.Errorf("%w: axis %q has no resolvable extent", ErrAxisMismatch, axis)
		}

		shape[idx] = extent
	}

	return shape, nil
}

// axisExtents walks every input's declared shape and records the extent
// of each non-reduced axis name, failing if an axis name disagrees about
// its extent across occurrences or an input's declared rank does not
// match the shape actually supplied.
func (m *MapSpec) axisExtents(inputShapes map[string][]int) (map[string]int, error) {
	extents := make(map[string]int, len(m.Inputs))

	for _, in := range m.Inputs {
		shape, ok := inputShapes[in.Name]
		if !ok {
			return nil, fmt.Errorf("%w: no shape supplied for input %q", ErrAxisMismatch, in.Name)
		}

		if len(shape) != len(in.Axes) {
			return nil, fmt.Errorf("%w: input %q declares %d axes but shape has rank %d",
				ErrAxisMismatch, in.Name, len(in.Axes), len(shape))
		}

		for idx, axis := range in.Axes {
			if axis == reduceAxis {
				continue
			}

			extent := shape[idx]

			existing, seen := extents[axis]
			if seen && existing != extent {
				return nil, fmt.Errorf("%w: axis %q has extent %d via %q but %d elsewhere",
					ErrAxisMismatch, axis, extent, in.Name, existing)
			}

			extents[axis] = extent
		}
	}

	return extents, nil
}

// unravel converts a linear index into a multi-index against shape, in
// row-major (C) order — the same convention NumPy uses for reshape.
func unravel(shape []int, linearIndex int) ([]int, error) {
	size := 1
	for _, dim := range shape {
		size *= dim
	}

	if linearIndex < 0 || linearIndex >= size {
		return nil, fmt.Errorf("%w: linear index %d out of range for shape %v", ErrAxisMismatch, linearIndex, shape)
	}

	multiIndex := make([]int, len(shape))
	remaining := linearIndex

	for idx := len(shape) - 1; idx >= 0; idx-- {
		dim := shape[idx]
		if dim == 0 {
			multiIndex[idx] = 0

			continue
		}

		multiIndex[idx] = remaining % dim
		remaining /= dim
	}

	return multiIndex, nil
}

// OutputKey returns the multi-index into an output's external axes for
// the given linear position in the external iteration space.
func (m *MapSpec) OutputKey(externalShape []int, linearIndex int) ([]int, error) {
	return unravel(externalShape, linearIndex)
}

// InputKeys unravels linearIndex against externalShape and, for each
// input parameter, emits the per-axis index tuple that should be used to
// slice that parameter's array for this cell. Axes declared with the
// reduce sentinel ":" emit FullSlice, meaning the whole dimension is
// forwarded unindexed.
func (m *MapSpec) InputKeys(externalShape []int, linearIndex int) (map[string][]int, error) {
	external := m.externalAxes()

	multiIndex, err := unravel(externalShape, linearIndex)
	if err != nil {
		return nil, err
	}

	positionOf := make(map[string]int, len(external))
	for idx, axis := range external {
		positionOf[axis] = idx
	}

	keys := make(map[string][]int, len(m.Inputs))

	for _, in := range m.Inputs {
		tuple := make([]int, len(in.Axes))

		for idx, axis := range in.Axes {
			if axis == reduceAxis {
				tuple[idx] = FullSlice

				continue
			}

			pos, ok := positionOf[axis]
			if !ok {
				return nil, fmt.Errorf("%w: input axis %q of %q is not part of the external shape",
					ErrAxisMismatch, axis, in.Name)
			}

			tuple[idx] = multiIndex[pos]
		}

		keys[in.Name] = tuple
	}

	return keys, nil
}
