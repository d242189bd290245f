package mapspec

import "fmt"

// axisOccurrence records where an axis name was seen: the parameter name
// and positional index within that parameter's axis tuple.
type axisOccurrence struct {
	param string
	index int
}

// ValidateConsistentAxes checks that across every mapspec of a pipeline,
// an axis name always occupies the same positional index within any
// parameter it is attached to. A mapspec earlier in the DAG binding
// axis "i" to position 0 of some array and a later mapspec binding "i"
// to position 1 of the same array name is a design-time error.
func ValidateConsistentAxes(mapspecs []*MapSpec) error {
	seen := make(map[string]map[string]axisOccurrence) // axis -> param -> occurrence

	for _, m := range mapspecs {
		specs := make([]ArraySpec, 0, len(m.Inputs)+len(m.Outputs))
		specs = append(specs, m.Inputs...)
		specs = append(specs, m.Outputs...)

		for _, spec := range specs {
			for idx, axis := range spec.Axes {
				if axis == reduceAxis {
					continue
				}

				err := recordAxisOccurrence(seen, axis, spec.Name, idx)
				if err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func recordAxisOccurrence(seen map[string]map[string]axisOccurrence, axis, param string, index int) error {
	byParam, ok := seen[axis]
	if !ok {
		byParam = make(map[string]axisOccurrence)
		seen[axis] = byParam
	}

	existing, ok := byParam[param]
	if !ok {
		byParam[param] = axisOccurrence{param: param, index: index}

		return nil
	}

	if existing.index != index {
		return fmt.Errorf("%w: axis %q binds %q at position %d and at position %d elsewhere",
			ErrAxisConflict, axis, param, index, existing.index)
	}

	return nil
}

// MapspecDimensions returns, for every parameter referenced by any of the
// given mapspecs (as either an input or an output), the number of axes
// it is declared with. Exported as public API for callers that need a
// parameter's declared rank up front (e.g. building input arrays of the
// right shape before a run starts); the resolver and scheduler do not
// call it themselves since axisExtents already checks declared-vs-actual
// rank per mapspec invocation.
func MapspecDimensions(mapspecs []*MapSpec) map[string]int {
	dims := make(map[string]int)

	for _, m := range mapspecs {
		for _, in := range m.Inputs {
			dims[in.Name] = len(in.Axes)
		}

		for _, out := range m.Outputs {
			dims[out.Name] = len(out.Axes)
		}
	}

	return dims
}
