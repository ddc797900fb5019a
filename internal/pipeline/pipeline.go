package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/snowcastio/snowcast/internal/batch"
	"github.com/snowcastio/snowcast/internal/fetch"
	"github.com/snowcastio/snowcast/internal/forecast"
	"github.com/snowcastio/snowcast/internal/geo"
	"github.com/snowcastio/snowcast/internal/observability"
	"github.com/snowcastio/snowcast/internal/store"
)

// Pipeline runs one full update: plan batches, fetch every chunk, assemble
// resort records, and merge them into the published dataset. It is the single
// writer of the dataset.
type Pipeline struct {
	locations   []geo.Location
	orch        *fetch.Orchestrator
	dataset     *store.Dataset
	maxPerChunk int
	metrics     *observability.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

func New(locations []geo.Location, orch *fetch.Orchestrator, dataset *store.Dataset, maxPerChunk int, metrics *observability.Metrics, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		locations:   locations,
		orch:        orch,
		dataset:     dataset,
		maxPerChunk: maxPerChunk,
		metrics:     metrics,
		logger:      logger.With("component", "pipeline"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RunCycle executes one update cycle. Chunk and resort failures are absorbed
// inside the run; an error here means the cycle as a whole could not produce
// a result and the dataset was left untouched.
func (p *Pipeline) RunCycle(ctx context.Context) error {
	start := p.now()

	batches := batch.Plan(p.locations, p.maxPerChunk)
	if len(batches) == 0 {
		return fmt.Errorf("no fetchable locations configured")
	}

	planned := 0
	for _, b := range batches {
		planned += len(b.Locations)
	}
	p.logger.Info("update cycle starting",
		"countries", len(batches), "locations", planned)

	results := p.orch.Run(ctx, batches)

	records := make(map[string]forecast.ResortRecord)
	for _, b := range batches {
		for _, loc := range b.Locations {
			series, ok := results[loc.ID]
			if !ok {
				// Orchestrator guarantees coverage; treat a gap like a
				// failed chunk.
				p.logger.Warn("location missing from fetch results", "resort", loc.ID)
				continue
			}
			rec, ok := forecast.AssembleResort(loc, series, p.logger)
			if !ok {
				continue
			}
			records[rec.ID] = rec
		}
	}

	completedAt := p.now()
	p.dataset.Merge(records, completedAt)

	p.metrics.ResortsPublished.Set(float64(len(records)))
	p.metrics.DatasetSize.Set(float64(p.dataset.Size()))
	p.metrics.CycleDuration.Observe(completedAt.Sub(start).Seconds())

	p.logger.Info("update cycle completed",
		"resorts", len(records), "dropped", planned-len(records),
		"duration", completedAt.Sub(start).String())

	return nil
}
