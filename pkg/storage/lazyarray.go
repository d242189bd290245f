package storage

// LazyArray is a read-only N-D view over a Storage: element access reads
// through to the backing store rather than materialising the whole
// array up front, so downstream functions that only need a handful of
// cells never pay for the rest.
type LazyArray struct {
	store Storage
	shape []int
}

func newLazyArray(store Storage) *LazyArray {
	return &LazyArray{store: store, shape: store.Shape()}
}

// Shape returns the array's dimensions.
func (a *LazyArray) Shape() []int {
	return a.shape
}

// At reads the cell addressed by key, triggering a Storage read.
func (a *LazyArray) At(key []int) (any, error) {
	return a.store.GetFromIndex(ravel(a.shape, key))
}

// AtLinear reads the cell at linearIndex directly, without an
// intermediate key allocation.
func (a *LazyArray) AtLinear(linearIndex int) (any, error) {
	return a.store.GetFromIndex(linearIndex)
}

// ToSlice materialises every cell into a flat, linear-index-ordered
// slice. Callers that need the full array (e.g. to hand it to a
// downstream function with no mapspec) pay the read cost once, here,
// rather than scattered across many lazy accesses.
func (a *LazyArray) ToSlice() ([]any, error) {
	total := size(a.shape)
	values := make([]any, total)

	for idx := range total {
		value, err := a.store.GetFromIndex(idx)
		if err != nil {
			return nil, err
		}

		values[idx] = value
	}

	return values, nil
}
