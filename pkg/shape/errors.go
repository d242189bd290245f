package shape

import "errors"

// ErrMissingShape is returned when a parameter participates in a
// mapspec (as an input or an output) but its shape cannot be determined
// from the root inputs, an upstream mapspec, or an internal_shapes
// override.
var ErrMissingShape = errors.New("shape: no resolvable shape for parameter")
