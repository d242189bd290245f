package pipefunc

import (
	"context"
	"sync"
)

// Builder accumulates PipeFuncs added from within a WithBuilder scope and
// produces the finished Pipeline. It is the explicit replacement for a
// process-level "current graph" slot: callers thread it through ctx
// rather than reaching for global mutable state.
type Builder struct {
	mu    sync.Mutex
	funcs []*PipeFunc
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add registers f with the builder. Safe for concurrent use.
func (b *Builder) Add(f *PipeFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.funcs = append(b.funcs, f)
}

// Build constructs the Pipeline from every PipeFunc added so far.
func (b *Builder) Build() (*Pipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return NewPipeline(b.funcs)
}

type builderContextKey struct{}

// WithBuilder creates a Builder, stores it in ctx for the duration of fn,
// and - if fn returns without error - builds and returns the resulting
// Pipeline.
func WithBuilder(ctx context.Context, fn func(ctx context.Context, b *Builder) error) (*Pipeline, error) {
	b := NewBuilder()
	scoped := context.WithValue(ctx, builderContextKey{}, b)

	err := fn(scoped, b)
	if err != nil {
		return nil, err
	}

	return b.Build()
}

// BuilderFromContext returns the Builder stored by the enclosing
// WithBuilder call, if any.
func BuilderFromContext(ctx context.Context) (*Builder, bool) {
	b, ok := ctx.Value(builderContextKey{}).(*Builder)

	return b, ok
}
