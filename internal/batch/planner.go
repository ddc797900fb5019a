package batch

import (
	"github.com/snowcastio/snowcast/internal/geo"
)

// A country batch queries 3 elevation points per resort plus one
// freezing-level point, so the provider's per-call point ceiling translates
// into a per-chunk location cap.
const DefaultMaxLocationsPerChunk = 30

// Forecast model assignment. Countries missing from the table fall back to
// the provider's blended model; freezing level always queries the reference
// model regardless of the country's main model.
const (
	DefaultModel  = "best_match"
	FreezingModel = "best_match"
)

var countryModels = map[string]string{
	"US": "gfs_seamless",
	"CA": "gem_seamless",
	"JP": "jma_seamless",
	"FR": "meteofrance_seamless",
	"AT": "icon_seamless",
	"DE": "icon_seamless",
	"CH": "icon_seamless",
	"IT": "icon_seamless",
}

// ModelForCountry returns the forecast model assigned to a country code.
func ModelForCountry(country string) string {
	if m, ok := countryModels[country]; ok {
		return m
	}
	return DefaultModel
}

// CountryBatch groups the locations of one country under one forecast model.
// Location order is the insertion order of the input set; chunking and the
// 3-points-per-location expansion both preserve it.
type CountryBatch struct {
	Country   string
	Model     string
	Locations []geo.Location
	Chunks    []RequestChunk
}

// RequestChunk is a contiguous slice of a country batch sized to fit one
// provider call.
type RequestChunk struct {
	Locations []geo.Location
}

// MainPoints expands the chunk into its 3N elevation query points. Triplet
// [3i, 3i+1, 3i+2] is always [base, mid, top] of location i.
func (c RequestChunk) MainPoints() (lats, lons, elevations []float64) {
	lats = make([]float64, 0, 3*len(c.Locations))
	lons = make([]float64, 0, 3*len(c.Locations))
	elevations = make([]float64, 0, 3*len(c.Locations))

	for _, loc := range c.Locations {
		for _, elev := range []float64{loc.Elevations.Base, loc.Elevations.Mid, loc.Elevations.Top} {
			lats = append(lats, *loc.Lat)
			lons = append(lons, *loc.Lon)
			elevations = append(elevations, elev)
		}
	}
	return lats, lons, elevations
}

// FreezingPoints expands the chunk into its N freezing-level query points.
func (c RequestChunk) FreezingPoints() (lats, lons []float64) {
	lats = make([]float64, 0, len(c.Locations))
	lons = make([]float64, 0, len(c.Locations))
	for _, loc := range c.Locations {
		lats = append(lats, *loc.Lat)
		lons = append(lons, *loc.Lon)
	}
	return lats, lons
}

// Plan groups locations into per-country batches and slices each batch into
// chunks of at most maxPerChunk locations. Locations without coordinates are
// excluded; every other location lands in exactly one chunk of exactly one
// batch. Country order follows first appearance in the input.
func Plan(locations []geo.Location, maxPerChunk int) []CountryBatch {
	if maxPerChunk <= 0 {
		maxPerChunk = DefaultMaxLocationsPerChunk
	}

	var order []string
	byCountry := make(map[string]*CountryBatch)

	for _, loc := range locations {
		if !loc.HasCoordinates() {
			continue
		}

		b, ok := byCountry[loc.Country]
		if !ok {
			b = &CountryBatch{
				Country: loc.Country,
				Model:   ModelForCountry(loc.Country),
			}
			byCountry[loc.Country] = b
			order = append(order, loc.Country)
		}
		b.Locations = append(b.Locations, loc)
	}

	batches := make([]CountryBatch, 0, len(order))
	for _, country := range order {
		b := byCountry[country]
		for start := 0; start < len(b.Locations); start += maxPerChunk {
			end := start + maxPerChunk
			if end > len(b.Locations) {
				end = len(b.Locations)
			}
			b.Chunks = append(b.Chunks, RequestChunk{Locations: b.Locations[start:end]})
		}
		batches = append(batches, *b)
	}

	return batches
}
