package mapspec

import "errors"

// Sentinel errors returned by this package. Callers should use errors.Is
// to test for these, and may find additional context by inspecting the
// wrapped error message.
var (
	// ErrParse indicates a malformed mapspec string.
	ErrParse = errors.New("mapspec: parse error")
	// ErrAxisMismatch indicates that a zipped axis disagreed in length, or
	// a required input shape was not supplied.
	ErrAxisMismatch = errors.New("mapspec: axis mismatch")
	// ErrAxisConflict indicates an axis name used at inconsistent
	// positions across the mapspecs of a single pipeline.
	ErrAxisConflict = errors.New("mapspec: axis conflict")
)
