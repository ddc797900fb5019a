package forecast

import (
	"time"

	"github.com/snowcastio/snowcast/internal/snow"
)

// Period is one of the three day-parts a calendar day is split into.
type Period int

const (
	PeriodAM Period = iota
	PeriodPM
	PeriodNight
)

func (p Period) String() string {
	switch p {
	case PeriodAM:
		return "am"
	case PeriodPM:
		return "pm"
	default:
		return "night"
	}
}

// periodForHour assigns a local wall-clock hour to its day-part.
func periodForHour(hour int) Period {
	switch {
	case hour < 12:
		return PeriodAM
	case hour < 18:
		return PeriodPM
	default:
		return PeriodNight
	}
}

// HourlySample is one hour of provider data for one elevation point.
type HourlySample struct {
	Time            time.Time // local wall clock, represented in UTC
	WindSpeed       float64
	WindDirection   int
	Temperature     float64
	Humidity        float64
	Precipitation   float64
	WeatherCode     int
	SurfacePressure float64
	Rain            float64
	Snowfall        float64
}

// PeriodAggregate is the statistical reduction of one day-part at one
// elevation. Precipitation-family sums keep four decimals so sub-millimeter
// amounts survive rounding; everything else keeps two.
type PeriodAggregate struct {
	TemperatureMax    float64 `json:"temperature_max"`
	TemperatureMin    float64 `json:"temperature_min"`
	TemperatureAvg    float64 `json:"temperature_avg"`
	TemperatureMedian float64 `json:"temperature_median"`

	WindSpeedAvg  float64 `json:"wind_speed_avg"`
	WindDirection int     `json:"wind_direction"`
	HumidityAvg   float64 `json:"humidity_avg"`
	PressureAvg   float64 `json:"pressure_avg"`

	PrecipitationSum float64 `json:"precipitation_sum"`
	RainSum          float64 `json:"rain_sum"`
	SnowfallSum      float64 `json:"snowfall_sum"`

	WeatherCode int `json:"weather_code"`

	FreezingLevelMax *float64 `json:"freezing_level_max"`

	SnowfallEstimateCm float64       `json:"snowfall_estimate_cm"`
	SnowRatioAvg       float64       `json:"snow_ratio_avg"`
	SnowQuality        *snow.Quality `json:"snow_quality"`
}

// DayParts holds the three aggregates of one calendar date. A nil part means
// no hours fell into it, which callers must not read as calm weather.
type DayParts struct {
	AM    *PeriodAggregate `json:"am"`
	PM    *PeriodAggregate `json:"pm"`
	Night *PeriodAggregate `json:"night"`
}

func (d DayParts) isEmpty() bool {
	return d.AM == nil && d.PM == nil && d.Night == nil
}

// ElevationForecast is the per-date forecast of one elevation point.
type ElevationForecast struct {
	Elevation float64            `json:"elevation"`
	Lat       float64            `json:"lat"`
	Lon       float64            `json:"lon"`
	Days      map[string]DayParts `json:"days"` // keyed by ISO date
}

// ResortRecord is the published three-elevation forecast of one resort.
type ResortRecord struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Country string            `json:"country"`
	Base    ElevationForecast `json:"base"`
	Mid     ElevationForecast `json:"mid"`
	Top     ElevationForecast `json:"top"`
}
