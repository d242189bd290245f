package scheduler

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by this package. Callers should use errors.Is
// to test for these.
var (
	// ErrParallelismUnsupported is returned when parallel execution is
	// requested but a storage backend in use does not support concurrent
	// Dump/GetFromIndex calls.
	ErrParallelismUnsupported = errors.New("scheduler: storage backend does not support parallel execution")
	// ErrMissingInputs is returned when a root argument has neither a
	// supplied value nor a pipeline default.
	ErrMissingInputs = errors.New("scheduler: missing required input")
	// ErrMissingShape is returned when a mapped function's external shape
	// or mask cannot be found in the resolved RunInfo.
	ErrMissingShape = errors.New("scheduler: no resolved shape for mapped function")
)

// FunctionError wraps an error raised while evaluating Function, adding
// the cell Index (-1 for a non-mapped call) and the kwargs selected for
// that call so the caller can diagnose which invocation failed.
type FunctionError struct {
	Function string
	Index    int
	Kwargs   map[string]any
	Err      error
}

// NonCellIndex is the Index FunctionError reports for a function that has
// no mapspec and therefore runs once per generation rather than once per
// cell.
const NonCellIndex = -1

func (e *FunctionError) Error() string {
	if e.Index == NonCellIndex {
		return fmt.Sprintf("function %q: %v", e.Function, e.Err)
	}

	return fmt.Sprintf("function %q (cell %d): %v", e.Function, e.Index, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/errors.As.
func (e *FunctionError) Unwrap() error {
	return e.Err
}
