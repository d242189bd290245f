// Package pipefunc models a pipeline of pure functions wired into a
// directed acyclic graph by shared parameter/output names, with optional
// per-function map specifications describing array broadcasting and
// zipping semantics.
package pipefunc

import "github.com/pipedag-dev/pipedag/pkg/mapspec"

// Func is the user-supplied computation a PipeFunc wraps. kwargs contains
// one entry per declared parameter name, already resolved to the value
// (or lazy array view) appropriate for the current invocation. The
// return value is either a single value (for a single-name output) or an
// aggregate to be split by OutputPicker (for a tuple output).
type Func func(kwargs map[string]any) (any, error)

// OutputPicker splits an aggregate value returned by a tuple-output Func
// into the named component for name.
type OutputPicker func(aggregate any, name string) (any, error)

// PipeFunc is one node of a Pipeline: a named function together with its
// ordered parameter list, the name(s) it produces, and an optional
// mapspec describing how it is broadcast over array inputs.
type PipeFunc struct {
	// Name uniquely identifies this function within its Pipeline.
	Name string
	// Parameters is the ordered list of input parameter names the
	// function consumes.
	Parameters []string
	// OutputNames is the name(s) this function produces. A single
	// element means Fn returns that value directly; more than one means
	// Fn returns an aggregate that OutputPicker splits per name.
	OutputNames []string
	// OutputPicker splits a tuple output's aggregate. Required when
	// len(OutputNames) > 1, ignored otherwise.
	OutputPicker OutputPicker
	// MapSpec describes the axis pattern this function is evaluated
	// under, or nil if the function is called once per run.
	MapSpec *mapspec.MapSpec
	// Defaults supplies values for parameters the caller does not
	// provide as a root input.
	Defaults map[string]any
	// Fn is the underlying computation.
	Fn Func
}

// IsTupleOutput reports whether this function produces more than one
// named output from a single call.
func (pf *PipeFunc) IsTupleOutput() bool {
	return len(pf.OutputNames) > 1
}

// Call invokes Fn with kwargs and, for a tuple output, applies
// OutputPicker to produce the value for each declared output name.
func (pf *PipeFunc) Call(kwargs map[string]any) (map[string]any, error) {
	result, err := pf.Fn(kwargs)
	if err != nil {
		return nil, err
	}

	if !pf.IsTupleOutput() {
		return map[string]any{pf.OutputNames[0]: result}, nil
	}

	picked := make(map[string]any, len(pf.OutputNames))

	for _, name := range pf.OutputNames {
		value, err := pf.OutputPicker(result, name)
		if err != nil {
			return nil, err
		}

		picked[name] = value
	}

	return picked, nil
}
