package provider

import "context"

// Hourly variable names, as the provider spells them. MainHourlyVariables is
// the fixed request order for elevation-point calls; response value arrays are
// positionally matched to it.
const (
	VarWindSpeed       = "wind_speed_10m"
	VarWindDirection   = "wind_direction_10m"
	VarTemperature     = "temperature_2m"
	VarHumidity        = "relative_humidity_2m"
	VarPrecipitation   = "precipitation"
	VarWeatherCode     = "weather_code"
	VarSurfacePressure = "surface_pressure"
	VarRain            = "rain"
	VarSnowfall        = "snowfall"
	VarFreezingLevel   = "freezing_level_height"
)

// MainHourlyVariables is the nine-variable set requested per elevation point.
var MainHourlyVariables = []string{
	VarWindSpeed,
	VarWindDirection,
	VarTemperature,
	VarHumidity,
	VarPrecipitation,
	VarWeatherCode,
	VarSurfacePressure,
	VarRain,
	VarSnowfall,
}

// Request describes one multi-point hourly forecast call. The three point
// arrays are parallel; Elevations may be nil for calls that let the provider
// pick the surface elevation (freezing-level lookups).
type Request struct {
	Latitudes    []float64
	Longitudes   []float64
	Elevations   []float64
	Hourly       []string
	Model        string
	ForecastDays int
}

// PointSeries is the normalized hourly series for one request point. Values
// are keyed by variable name; every array shares Start/Interval/UTCOffset.
// UTCOffset carries the provider's per-point local offset (timezone=auto).
type PointSeries struct {
	Latitude  float64
	Longitude float64
	Start     int64 // epoch seconds of the first sample
	Interval  int64 // seconds between samples
	UTCOffset int64 // seconds
	Values    map[string][]float64
}

// Len returns the sample count of the series, using the shortest variable
// array so a ragged response can never cause an out-of-range read.
func (s PointSeries) Len() int {
	n := -1
	for _, vals := range s.Values {
		if n < 0 || len(vals) < n {
			n = len(vals)
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

// Value returns sample i of a variable, or 0 when the variable is absent.
func (s PointSeries) Value(name string, i int) float64 {
	vals, ok := s.Values[name]
	if !ok || i >= len(vals) {
		return 0
	}
	return vals[i]
}

// Client is the outbound capability the pipeline depends on: given point
// arrays and model parameters, return one hourly series per point or fail.
type Client interface {
	FetchHourly(ctx context.Context, req Request) ([]PointSeries, error)
}
