package batch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowcastio/snowcast/internal/geo"
)

func makeLocation(id, country string, withCoords bool) geo.Location {
	loc := geo.Location{
		ID:         id,
		Name:       id,
		Country:    country,
		Elevations: geo.Elevations{Base: 1000, Mid: 1500, Top: 2000},
	}
	if withCoords {
		lat, lon := 47.0, 10.0
		loc.Lat, loc.Lon = &lat, &lon
	}
	return loc
}

func TestPlanPartitionsEveryLocationOnce(t *testing.T) {
	var locs []geo.Location
	for i := 0; i < 7; i++ {
		locs = append(locs, makeLocation(fmt.Sprintf("at-%d", i), "AT", true))
	}
	for i := 0; i < 3; i++ {
		locs = append(locs, makeLocation(fmt.Sprintf("fr-%d", i), "FR", true))
	}

	batches := Plan(locs, 3)
	require.Len(t, batches, 2)

	// Country order follows first appearance.
	assert.Equal(t, "AT", batches[0].Country)
	assert.Equal(t, "FR", batches[1].Country)
	assert.Equal(t, "icon_seamless", batches[0].Model)
	assert.Equal(t, "meteofrance_seamless", batches[1].Model)

	// 7 locations at chunk size 3 -> chunks of 3, 3, 1.
	require.Len(t, batches[0].Chunks, 3)
	assert.Len(t, batches[0].Chunks[0].Locations, 3)
	assert.Len(t, batches[0].Chunks[2].Locations, 1)

	seen := map[string]int{}
	for _, b := range batches {
		total := 0
		for _, c := range b.Chunks {
			total += len(c.Locations)
			for _, loc := range c.Locations {
				seen[loc.ID]++
			}
		}
		assert.Equal(t, len(b.Locations), total, "chunk sizes must sum to batch size")
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "location %s appears in %d chunks", id, n)
	}
	assert.Len(t, seen, 10)
}

func TestPlanSkipsLocationsWithoutCoordinates(t *testing.T) {
	locs := []geo.Location{
		makeLocation("a", "AT", true),
		makeLocation("b", "AT", false),
		makeLocation("c", "AT", true),
	}

	batches := Plan(locs, 30)
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Locations, 2)
	assert.Equal(t, "a", batches[0].Locations[0].ID)
	assert.Equal(t, "c", batches[0].Locations[1].ID)
}

func TestPlanPreservesInsertionOrder(t *testing.T) {
	locs := []geo.Location{
		makeLocation("x", "NO", true),
		makeLocation("y", "NO", true),
		makeLocation("z", "NO", true),
	}

	batches := Plan(locs, 2)
	require.Len(t, batches, 1)
	assert.Equal(t, DefaultModel, batches[0].Model) // unmapped country

	var got []string
	for _, c := range batches[0].Chunks {
		for _, loc := range c.Locations {
			got = append(got, loc.ID)
		}
	}
	assert.Equal(t, []string{"x", "y", "z"}, got)
}

func TestMainPointsTripletInvariant(t *testing.T) {
	chunk := RequestChunk{Locations: []geo.Location{
		makeLocation("a", "AT", true),
		makeLocation("b", "AT", true),
	}}

	lats, lons, elevs := chunk.MainPoints()
	require.Len(t, lats, 3*len(chunk.Locations))
	require.Len(t, lons, 3*len(chunk.Locations))
	require.Len(t, elevs, 3*len(chunk.Locations))

	for i, loc := range chunk.Locations {
		assert.Equal(t, loc.Elevations.Base, elevs[3*i])
		assert.Equal(t, loc.Elevations.Mid, elevs[3*i+1])
		assert.Equal(t, loc.Elevations.Top, elevs[3*i+2])
		assert.Equal(t, *loc.Lat, lats[3*i])
		assert.Equal(t, *loc.Lon, lons[3*i+2])
	}

	fLats, fLons := chunk.FreezingPoints()
	assert.Len(t, fLats, len(chunk.Locations))
	assert.Len(t, fLons, len(chunk.Locations))
}

func TestPlanDefaultChunkSize(t *testing.T) {
	var locs []geo.Location
	for i := 0; i < 65; i++ {
		locs = append(locs, makeLocation(fmt.Sprintf("r-%d", i), "US", true))
	}

	batches := Plan(locs, 0)
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Chunks, 3) // 30 + 30 + 5
	assert.Len(t, batches[0].Chunks[0].Locations, 30)
	assert.Len(t, batches[0].Chunks[2].Locations, 5)
}
