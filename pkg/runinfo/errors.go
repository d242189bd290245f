package runinfo

import "errors"

// ErrMissingShape is returned by InitStore when a mapspec-produced name
// has no entry in the resolved shapes (the shape resolver failed to
// cover it, which should not happen for a RunInfo built by Create).
var ErrMissingShape = errors.New("runinfo: no resolved shape for mapspec output")
