package scheduler

import (
	"context"
	"sync"
)

// Task is a unit of work submitted to an Executor: it computes one
// value or fails. Implementations must not retain ctx beyond the call.
type Task func(ctx context.Context) (any, error)

// Future is a handle to a Task's eventual result. Result blocks until the
// task completes.
type Future interface {
	Result() (any, error)
}

// Executor runs Tasks, either immediately or on a pool of goroutines. The
// scheduler is agnostic to which: it always calls Submit and only blocks
// on Result when it actually needs the value.
type Executor interface {
	// Submit schedules task and returns a Future for its result.
	Submit(ctx context.Context, task Task) Future
	// Close releases any resources (e.g. worker goroutines) the executor
	// holds. Safe to call on an executor that was never Submit-ed to.
	Close()
}

// resolvedFuture is a Future whose value is already known.
type resolvedFuture struct {
	value any
	err   error
}

func (f resolvedFuture) Result() (any, error) { return f.value, f.err }

// InlineExecutor runs every task synchronously on the calling goroutine,
// inside Submit itself. Used for storage backends that are not
// Parallelizable, and for small pipelines/tests where goroutine overhead
// is not worth paying.
type InlineExecutor struct{}

// NewInlineExecutor creates an Executor that runs tasks synchronously.
func NewInlineExecutor() *InlineExecutor {
	return &InlineExecutor{}
}

// Submit runs task immediately and returns its already-resolved result.
func (e *InlineExecutor) Submit(ctx context.Context, task Task) Future {
	value, err := task(ctx)

	return resolvedFuture{value: value, err: err}
}

// Close is a no-op for InlineExecutor.
func (e *InlineExecutor) Close() {}

// channelFuture is the Future PoolExecutor hands back: Result blocks on a
// one-shot channel the worker goroutine closes after writing its outcome.
type channelFuture struct {
	done  chan struct{}
	value any
	err   error
}

func (f *channelFuture) Result() (any, error) {
	<-f.done

	return f.value, f.err
}

// PoolExecutor runs submitted tasks across a fixed number of worker
// goroutines draining a shared work channel, the same buffered-channel-
// plus-WaitGroup shape the teacher's leaf-analyzer worker pool uses.
type PoolExecutor struct {
	work chan poolJob
	wg   sync.WaitGroup
}

type poolJob struct {
	ctx    context.Context
	task   Task
	future *channelFuture
}

// poolJobBuffer is the work channel's buffer size: small enough to cap
// memory, large enough that a burst of Submit calls does not immediately
// block the caller on a slow worker.
const poolJobBuffer = 64

// NewPoolExecutor starts workers goroutines, each draining the shared
// work queue until Close. workers <= 0 is clamped to 1.
func NewPoolExecutor(workers int) *PoolExecutor {
	if workers <= 0 {
		workers = 1
	}

	e := &PoolExecutor{work: make(chan poolJob, poolJobBuffer)}

	e.wg.Add(workers)

	for range workers {
		go e.drain()
	}

	return e
}

func (e *PoolExecutor) drain() {
	defer e.wg.Done()

	for job := range e.work {
		value, err := job.task(job.ctx)
		job.future.value = value
		job.future.err = err
		close(job.future.done)
	}
}

// Submit enqueues task for execution by the next free worker.
func (e *PoolExecutor) Submit(ctx context.Context, task Task) Future {
	future := &channelFuture{done: make(chan struct{})}
	e.work <- poolJob{ctx: ctx, task: task, future: future}

	return future
}

// Close stops accepting new work and waits for all workers to finish
// whatever they already picked up.
func (e *PoolExecutor) Close() {
	close(e.work)
	e.wg.Wait()
}
