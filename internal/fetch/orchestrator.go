package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/snowcastio/snowcast/internal/batch"
	"github.com/snowcastio/snowcast/internal/forecast"
	"github.com/snowcastio/snowcast/internal/observability"
	"github.com/snowcastio/snowcast/internal/provider"
)

// DefaultBatchDelay is the minimum spacing between any two provider calls.
const DefaultBatchDelay = 60 * time.Second

// Orchestrator executes a planned chunk list against the provider, strictly
// sequentially, pacing every call against a run-global delay budget. Failures
// are isolated to their chunk: the affected locations get empty series and
// the run continues.
type Orchestrator struct {
	client       provider.Client
	clock        clockwork.Clock
	delay        time.Duration
	forecastDays int
	metrics      *observability.Metrics
	logger       *slog.Logger
}

func New(client provider.Client, clock clockwork.Clock, delay time.Duration, forecastDays int, metrics *observability.Metrics, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client:       client,
		clock:        clock,
		delay:        delay,
		forecastDays: forecastDays,
		metrics:      metrics,
		logger:       logger.With("component", "fetch"),
	}
}

// rateGate paces provider calls. The first call of a run goes out
// immediately; every later call waits out the remainder of the delay budget.
// Pacing lives here so it stays independent of how chunks are laid out.
type rateGate struct {
	clock    clockwork.Clock
	delay    time.Duration
	lastCall time.Time
	started  bool
}

func (g *rateGate) wait(ctx context.Context) error {
	if g.started {
		if remaining := g.delay - g.clock.Since(g.lastCall); remaining > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-g.clock.After(remaining):
			}
		}
	}
	g.started = true
	g.lastCall = g.clock.Now()
	return nil
}

// Run fetches every chunk of every batch and returns the per-location series,
// keyed by location id. Every location planned into a chunk is present in the
// result; locations owned by a failed chunk map to an empty LocationSeries.
func (o *Orchestrator) Run(ctx context.Context, batches []batch.CountryBatch) map[string]forecast.LocationSeries {
	results := make(map[string]forecast.LocationSeries)
	gate := &rateGate{clock: o.clock, delay: o.delay}

	for _, b := range batches {
		for _, chunk := range b.Chunks {
			series, err := o.fetchChunk(ctx, gate, b, chunk)
			if err != nil {
				o.metrics.ChunkFailures.Inc()
				o.logger.Error("chunk fetch failed, locations get no data this cycle",
					"country", b.Country, "locations", len(chunk.Locations), "error", err)
				for _, loc := range chunk.Locations {
					results[loc.ID] = forecast.LocationSeries{}
				}
				if ctx.Err() != nil {
					// The run itself was cancelled; the remaining chunks
					// will fail the same way, so mark them and stop.
					o.markRemaining(results, batches)
					return results
				}
				continue
			}

			for i, loc := range chunk.Locations {
				results[loc.ID] = forecast.LocationSeries{
					Base:     &series.main[3*i],
					Mid:      &series.main[3*i+1],
					Top:      &series.main[3*i+2],
					Freezing: &series.freezing[i],
				}
			}
		}
	}

	return results
}

type chunkSeries struct {
	main     []provider.PointSeries
	freezing []provider.PointSeries
}

func (o *Orchestrator) fetchChunk(ctx context.Context, gate *rateGate, b batch.CountryBatch, chunk batch.RequestChunk) (chunkSeries, error) {
	lats, lons, elevs := chunk.MainPoints()
	fLats, fLons := chunk.FreezingPoints()

	if err := gate.wait(ctx); err != nil {
		return chunkSeries{}, err
	}
	main, err := o.client.FetchHourly(ctx, provider.Request{
		Latitudes:    lats,
		Longitudes:   lons,
		Elevations:   elevs,
		Hourly:       provider.MainHourlyVariables,
		Model:        b.Model,
		ForecastDays: o.forecastDays,
	})
	o.countRequest("main", err)
	if err != nil {
		return chunkSeries{}, fmt.Errorf("main call: %w", err)
	}
	if len(main) != 3*len(chunk.Locations) {
		return chunkSeries{}, fmt.Errorf("main call: got %d series for %d locations", len(main), len(chunk.Locations))
	}

	if err := gate.wait(ctx); err != nil {
		return chunkSeries{}, err
	}
	freezing, err := o.client.FetchHourly(ctx, provider.Request{
		Latitudes:    fLats,
		Longitudes:   fLons,
		Hourly:       []string{provider.VarFreezingLevel},
		Model:        batch.FreezingModel,
		ForecastDays: o.forecastDays,
	})
	o.countRequest("freezing", err)
	if err != nil {
		return chunkSeries{}, fmt.Errorf("freezing call: %w", err)
	}
	if len(freezing) != len(chunk.Locations) {
		return chunkSeries{}, fmt.Errorf("freezing call: got %d series for %d locations", len(freezing), len(chunk.Locations))
	}

	return chunkSeries{main: main, freezing: freezing}, nil
}

func (o *Orchestrator) countRequest(kind string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	o.metrics.ProviderRequests.WithLabelValues(kind, outcome).Inc()
}

// markRemaining fills empty series for every chunk the cancelled run never
// reached, so the result still covers each planned location.
func (o *Orchestrator) markRemaining(results map[string]forecast.LocationSeries, batches []batch.CountryBatch) {
	for _, b := range batches {
		for _, chunk := range b.Chunks {
			for _, loc := range chunk.Locations {
				if _, done := results[loc.ID]; !done {
					results[loc.ID] = forecast.LocationSeries{}
				}
			}
		}
	}
}
