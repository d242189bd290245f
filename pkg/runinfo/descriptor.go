package runinfo

import "github.com/pipedag-dev/pipedag/pkg/pipefunc"

// FunctionDescriptor is the serializable projection of a PipeFunc.
// Fn is a Go closure and cannot be gob-encoded, so only the metadata a
// reloaded run needs to reconcile against a freshly-constructed Pipeline
// is persisted; the callee's actual code is supplied by the caller at
// load time, not reconstructed from the blob.
type FunctionDescriptor struct {
	Name         string
	Parameters   []string
	OutputNames  []string
	Defaults     map[string]any
	MapSpecText  string
	HasMapSpec   bool
	IsTupleOut   bool
	PickerNeeded bool
}

func describeFunc(f *pipefunc.PipeFunc) FunctionDescriptor {
	desc := FunctionDescriptor{
		Name:        f.Name,
		Parameters:  f.Parameters,
		OutputNames: f.OutputNames,
		Defaults:    f.Defaults,
		IsTupleOut:  f.IsTupleOutput(),
	}

	if f.MapSpec != nil {
		desc.HasMapSpec = true
		desc.MapSpecText = f.MapSpec.String()
	}

	if desc.IsTupleOut {
		desc.PickerNeeded = true
	}

	return desc
}
