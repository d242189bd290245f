// Package mapspec implements the grammar and shape algebra for map
// specifications: axis patterns of the form "a[i], b[j] -> c[i, j]" that
// bind a function's input parameters to indexed axes of input arrays and
// describe the shape of the resulting output arrays.
package mapspec

import "strings"

// reduceAxis is the sentinel axis token meaning "consume this whole
// dimension", written ":" in mapspec source. It is valid only on the
// input side.
const reduceAxis = ":"

// ArraySpec is a parameter name paired with its ordered axis tuple. Each
// axis is either an identifier shared with other ArraySpecs (a zip or
// broadcast dimension) or the reduce sentinel.
type ArraySpec struct {
	Name string
	Axes []string
}

// IsReduced reports whether the axis at position idx is the reduce
// sentinel.
func (a ArraySpec) IsReduced(idx int) bool {
	return idx < len(a.Axes) && a.Axes[idx] == reduceAxis
}

// String renders the ArraySpec in canonical mapspec syntax, e.g. "a[i, j]".
func (a ArraySpec) String() string {
	var b strings.Builder

	b.WriteString(a.Name)
	b.WriteByte('[')

	for idx, axis := range a.Axes {
		if idx > 0 {
			b.WriteString(", ")
		}

		b.WriteString(axis)
	}

	b.WriteByte(']')

	return b.String()
}

// MapSpec is a parsed "inputs -> outputs" axis pattern.
type MapSpec struct {
	Inputs  []ArraySpec
	Outputs []ArraySpec
}

// Parameters returns the set of parameter names referenced on the input
// side, in declaration order.
func (m *MapSpec) Parameters() []string {
	names := make([]string, len(m.Inputs))
	for idx, in := range m.Inputs {
		names[idx] = in.Name
	}

	return names
}

// OutputNames returns the set of parameter names produced on the output
// side, in declaration order.
func (m *MapSpec) OutputNames() []string {
	names := make([]string, len(m.Outputs))
	for idx, out := range m.Outputs {
		names[idx] = out.Name
	}

	return names
}

// String renders the MapSpec in canonical form: "Parse(m.String()).String()
// == m.String()" modulo whitespace.
func (m *MapSpec) String() string {
	var b strings.Builder

	for idx, in := range m.Inputs {
		if idx > 0 {
			b.WriteString(", ")
		}

		b.WriteString(in.String())
	}

	b.WriteString(" -> ")

	for idx, out := range m.Outputs {
		if idx > 0 {
			b.WriteString(", ")
		}

		b.WriteString(out.String())
	}

	return b.String()
}
