package pipefunc

import "errors"

// Sentinel errors for Pipeline construction and lookup.
var (
	// ErrCyclicGraph indicates the functions passed to NewPipeline form a
	// cycle via their parameter/output dependencies.
	ErrCyclicGraph = errors.New("pipefunc: cyclic dependency graph")
	// ErrDuplicateOutput indicates two functions claim to produce the
	// same output name.
	ErrDuplicateOutput = errors.New("pipefunc: duplicate output producer")
	// ErrUnknownOutput indicates a lookup for an output name with no
	// registered producer.
	ErrUnknownOutput = errors.New("pipefunc: unknown output name")
)
