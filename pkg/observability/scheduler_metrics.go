package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCellsTotal         = "pipedag.scheduler.cells.total"
	metricGenerationsTotal   = "pipedag.scheduler.generations.total"
	metricGenerationDuration = "pipedag.scheduler.generation.duration.seconds"
	metricShardCacheHits     = "pipedag.scheduler.shard_cache.hits.total"
	metricShardCacheMisses   = "pipedag.scheduler.shard_cache.misses.total"

	attrCellStatus = "status"

	cellStatusComputed = "computed"
	cellStatusSkipped  = "skipped"
)

// SchedulerMetrics holds OTel instruments for run-specific scheduler metrics.
type SchedulerMetrics struct {
	cellsTotal         metric.Int64Counter
	generationsTotal   metric.Int64Counter
	generationDuration metric.Float64Histogram
	shardCacheHits     metric.Int64Counter
	shardCacheMisses   metric.Int64Counter
}

// RunStats holds the statistics for a single pipeline run, decoupled from
// scheduler-internal types.
type RunStats struct {
	Generations         int64
	GenerationDurations []time.Duration
	CellsComputed       int64
	CellsSkipped        int64
	ShardCacheHits      int64
	ShardCacheMisses    int64
}

// NewSchedulerMetrics creates scheduler metric instruments from the given meter.
func NewSchedulerMetrics(mt metric.Meter) (*SchedulerMetrics, error) {
	cells, err := mt.Int64Counter(metricCellsTotal,
		metric.WithDescription("Total map-cells processed, by status"),
		metric.WithUnit("{cell}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCellsTotal, err)
	}

	generations, err := mt.Int64Counter(metricGenerationsTotal,
		metric.WithDescription("Total topological generations executed"),
		metric.WithUnit("{generation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricGenerationsTotal, err)
	}

	genDuration, err := mt.Float64Histogram(metricGenerationDuration,
		metric.WithDescription("Per-generation execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricGenerationDuration, err)
	}

	hits, err := mt.Int64Counter(metricShardCacheHits,
		metric.WithDescription("Shard storage cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricShardCacheHits, err)
	}

	misses, err := mt.Int64Counter(metricShardCacheMisses,
		metric.WithDescription("Shard storage cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricShardCacheMisses, err)
	}

	return &SchedulerMetrics{
		cellsTotal:         cells,
		generationsTotal:   generations,
		generationDuration: genDuration,
		shardCacheHits:     hits,
		shardCacheMisses:   misses,
	}, nil
}

// RecordRun records scheduler statistics for a completed pipeline run.
// Safe to call on a nil receiver (no-op).
func (sm *SchedulerMetrics) RecordRun(ctx context.Context, stats RunStats) {
	if sm == nil {
		return
	}

	sm.generationsTotal.Add(ctx, stats.Generations)

	for _, d := range stats.GenerationDurations {
		sm.generationDuration.Record(ctx, d.Seconds())
	}

	sm.cellsTotal.Add(ctx, stats.CellsComputed, metric.WithAttributes(
		attribute.String(attrCellStatus, cellStatusComputed),
	))
	sm.cellsTotal.Add(ctx, stats.CellsSkipped, metric.WithAttributes(
		attribute.String(attrCellStatus, cellStatusSkipped),
	))

	sm.shardCacheHits.Add(ctx, stats.ShardCacheHits)
	sm.shardCacheMisses.Add(ctx, stats.ShardCacheMisses)
}
