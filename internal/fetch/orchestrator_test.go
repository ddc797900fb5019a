package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowcastio/snowcast/internal/batch"
	"github.com/snowcastio/snowcast/internal/geo"
	"github.com/snowcastio/snowcast/internal/observability"
	"github.com/snowcastio/snowcast/internal/provider"
)

// fakeClient serves synthetic series and can be told to fail specific calls.
type fakeClient struct {
	mu       sync.Mutex
	calls    []provider.Request
	failCall map[int]bool // 1-based call index
}

func (f *fakeClient) FetchHourly(_ context.Context, req provider.Request) ([]provider.PointSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, req)
	if f.failCall[len(f.calls)] {
		return nil, errors.New("provider unavailable")
	}

	series := make([]provider.PointSeries, len(req.Latitudes))
	for i := range series {
		values := make(map[string][]float64, len(req.Hourly))
		for _, name := range req.Hourly {
			values[name] = []float64{1, 2, 3}
		}
		series[i] = provider.PointSeries{
			Latitude:  req.Latitudes[i],
			Longitude: req.Longitudes[i],
			Start:     1704067200,
			Interval:  3600,
			Values:    values,
		}
	}
	return series, nil
}

func plannedBatches(locCount, maxPerChunk int) ([]batch.CountryBatch, []geo.Location) {
	var locs []geo.Location
	for i := 0; i < locCount; i++ {
		lat, lon := 47.0+float64(i), 10.0+float64(i)
		locs = append(locs, geo.Location{
			ID:         fmt.Sprintf("resort-%d", i),
			Country:    "AT",
			Lat:        &lat,
			Lon:        &lon,
			Elevations: geo.Elevations{Base: 1000, Mid: 1500, Top: 2000},
		})
	}
	return batch.Plan(locs, maxPerChunk), locs
}

func newTestOrchestrator(client provider.Client, clock clockwork.Clock, delay time.Duration) *Orchestrator {
	return New(client, clock, delay, 7, observability.NewMetricsForTesting(), slog.Default())
}

func TestRunHappyPath(t *testing.T) {
	client := &fakeClient{}
	o := newTestOrchestrator(client, clockwork.NewRealClock(), 0)

	batches, locs := plannedBatches(5, 2)
	results := o.Run(context.Background(), batches)

	require.Len(t, results, 5)
	for _, loc := range locs {
		series := results[loc.ID]
		require.NotNil(t, series.Base, loc.ID)
		require.NotNil(t, series.Mid, loc.ID)
		require.NotNil(t, series.Top, loc.ID)
		require.NotNil(t, series.Freezing, loc.ID)
	}

	// 3 chunks (2+2+1 locations), two calls each.
	require.Len(t, client.calls, 6)

	// Main calls carry 3N points in base/mid/top triplets; freezing calls
	// carry N points against the reference model.
	main := client.calls[0]
	assert.Len(t, main.Latitudes, 6)
	assert.Equal(t, provider.MainHourlyVariables, main.Hourly)
	assert.Equal(t, "icon_seamless", main.Model)
	assert.Equal(t, []float64{1000, 1500, 2000, 1000, 1500, 2000}, main.Elevations)

	frz := client.calls[1]
	assert.Len(t, frz.Latitudes, 2)
	assert.Nil(t, frz.Elevations)
	assert.Equal(t, []string{provider.VarFreezingLevel}, frz.Hourly)
	assert.Equal(t, batch.FreezingModel, frz.Model)
}

// TestRunIsolatesChunkFailure fails chunk 2 of 3 and verifies every planned
// location is still present, with the failed chunk's locations empty and the
// other chunks' data intact.
func TestRunIsolatesChunkFailure(t *testing.T) {
	// Calls: chunk1 main(1), frz(2); chunk2 main(3), frz(4); chunk3 main(5), frz(6).
	client := &fakeClient{failCall: map[int]bool{3: true}}
	o := newTestOrchestrator(client, clockwork.NewRealClock(), 0)

	batches, _ := plannedBatches(5, 2)
	results := o.Run(context.Background(), batches)

	require.Len(t, results, 5)

	// Chunk 2 owned resorts 2 and 3.
	for _, id := range []string{"resort-2", "resort-3"} {
		series := results[id]
		assert.Nil(t, series.Base, id)
		assert.Nil(t, series.Mid, id)
		assert.Nil(t, series.Top, id)
		assert.Nil(t, series.Freezing, id)
	}
	for _, id := range []string{"resort-0", "resort-1", "resort-4"} {
		assert.NotNil(t, results[id].Base, id)
	}

	// The failed chunk's freezing call is skipped; chunks 1 and 3 complete.
	require.Len(t, client.calls, 5)
}

func TestRunFreezingFailureFailsWholeChunk(t *testing.T) {
	client := &fakeClient{failCall: map[int]bool{2: true}}
	o := newTestOrchestrator(client, clockwork.NewRealClock(), 0)

	batches, _ := plannedBatches(2, 2)
	results := o.Run(context.Background(), batches)

	require.Len(t, results, 2)
	assert.Nil(t, results["resort-0"].Base)
	assert.Nil(t, results["resort-1"].Base)
}

// TestRunPacesCalls drives a fake clock and checks that every call after the
// first waits out the full delay.
func TestRunPacesCalls(t *testing.T) {
	client := &fakeClient{}
	clock := clockwork.NewFakeClock()
	delay := 60 * time.Second
	o := newTestOrchestrator(client, clock, delay)

	batches, _ := plannedBatches(2, 1) // 2 chunks, 4 calls, 3 waits

	done := make(chan map[string]bool)
	go func() {
		results := o.Run(context.Background(), batches)
		hasBase := map[string]bool{}
		for id, s := range results {
			hasBase[id] = s.Base != nil
		}
		done <- hasBase
	}()

	for i := 0; i < 3; i++ {
		clock.BlockUntil(1)
		clock.Advance(delay)
	}

	select {
	case hasBase := <-done:
		require.Len(t, hasBase, 2)
		for id, ok := range hasBase {
			assert.True(t, ok, id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("orchestrator did not finish after advancing the clock")
	}

	require.Len(t, client.calls, 4)
}

func TestRunCancelledContextCoversAllLocations(t *testing.T) {
	client := &fakeClient{}
	o := newTestOrchestrator(client, clockwork.NewRealClock(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	batches, _ := plannedBatches(4, 1)

	done := make(chan map[string]bool)
	go func() {
		results := o.Run(ctx, batches)
		covered := map[string]bool{}
		for id := range results {
			covered[id] = true
		}
		done <- covered
	}()

	// Let the first chunk's calls go through, then cancel during pacing.
	time.Sleep(50 * time.Millisecond)
	cancel()

	covered := <-done
	require.Len(t, covered, 4, "every planned location must appear in the result")
}
