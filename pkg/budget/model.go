// Package budget derives a worker-pool size and an input-blob cache size
// from the EngineConfig.MemoryBudget string ("512MiB", "2GiB", ...),
// distributing the usable memory across workers and caches the same way
// the teacher's repository-analysis solver once distributed a git
// budget — generalized here to the pipeline engine's own resources.
package budget

import "github.com/dustin/go-humanize"

// Size unit multipliers (binary, 1024-based), kept for readable
// constants below; humanize.ParseBytes handles the user-facing string
// form itself.
const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
)

// Component memory sizes.
const (
	// BaseOverhead is the fixed Go runtime overhead for the scheduler
	// goroutine, the toposort graph, and the resolved RunInfo held in
	// memory for the duration of a run.
	BaseOverhead = 64 * MiB

	// WorkerOverhead is the per-worker cost: one goroutine's stack plus
	// the kwargs/result buffers it holds while a cell task runs.
	WorkerOverhead = 8 * MiB

	// AvgCellBlobSize is the average size of one memoised input blob
	// entry in pkg/cache, used to convert a cache memory allocation into
	// an entry count.
	AvgCellBlobSize = 4 * KiB

	// MaxInputBlobCacheEntries caps the memoised input cache regardless
	// of how much memory the budget would otherwise allow; beyond this
	// the win from avoiding re-reads is marginal.
	MaxInputBlobCacheEntries = 8192
)

// Plan is the resource allocation the solver derives from a memory
// budget: how many goroutine-pool workers the scheduler may run, and how
// many entries the memoised input-blob cache (keyed by path/mtime/size)
// may hold.
type Plan struct {
	Workers               int
	InputBlobCacheEntries int
}

// ParseBytes parses a human-readable size string ("512MiB", "2 GB") via
// go-humanize. An empty string is a valid "no budget configured" value
// and parses to zero without error.
func ParseBytes(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	bytes, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}

	return int64(bytes), nil
}
