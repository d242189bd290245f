// Package shapeutil derives NumPy-style shapes from plain Go values using
// reflection, so that root pipeline inputs supplied as nested slices or
// arrays can participate in mapspec shape algebra without the caller
// declaring their dimensionality up front.
package shapeutil

import (
	"errors"
	"reflect"
)

var (
	errIndexTooDeep    = errors.New("shapeutil: key has more dimensions than the value's rank")
	errIndexOutOfRange = errors.New("shapeutil: index out of range for dimension")
)

// ShapeOf returns the NumPy-style shape of v: the length of v if it is a
// slice or array, followed recursively by the shape of its first
// element, down to the innermost non-slice/array value. A scalar (or
// nil) value has shape []int{}. Ragged nesting is not validated here —
// only the first element of each dimension is inspected, matching NumPy's
// own shape inference for nested Python sequences.
func ShapeOf(v any) []int {
	if v == nil {
		return []int{}
	}

	return shapeOfValue(reflect.ValueOf(v))
}

func shapeOfValue(rv reflect.Value) []int {
	for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return []int{}
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		length := rv.Len()
		if length == 0 {
			return []int{0}
		}

		return append([]int{length}, shapeOfValue(rv.Index(0))...)
	default:
		return []int{}
	}
}

// NDim returns the number of dimensions ShapeOf would report for v,
// without allocating the shape slice.
func NDim(v any) int {
	return len(ShapeOf(v))
}

// FullSlice is the sentinel index value Index treats as "take the whole
// remaining dimension rather than a single element" — callers pass the
// same sentinel value mapspec.FullSlice defines for a reduce axis.
const FullSlice = -1

// Index walks v, a (possibly nested) slice or array, one key element per
// dimension, returning either the scalar at that position or, for any
// dimension where key holds FullSlice, the whole sub-slice at that
// position without descending further.
func Index(v any, key []int) (any, error) {
	rv := reflect.ValueOf(v)

	for _, idx := range key {
		for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer {
			rv = rv.Elem()
		}

		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, errIndexTooDeep
		}

		if idx == FullSlice {
			return rv.Interface(), nil
		}

		if idx < 0 || idx >= rv.Len() {
			return nil, errIndexOutOfRange
		}

		rv = rv.Index(idx)
	}

	return rv.Interface(), nil
}

// Len returns the length of v's outermost dimension, or 0 if v is not a
// slice or array (or is empty).
func Len(v any) int {
	shape := ShapeOf(v)
	if len(shape) == 0 {
		return 0
	}

	return shape[0]
}
