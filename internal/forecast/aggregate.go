package forecast

import (
	"time"

	"github.com/snowcastio/snowcast/internal/provider"
	"github.com/snowcastio/snowcast/internal/snow"
)

// dateLayout is the ISO date key of the published day map.
const dateLayout = "2006-01-02"

type bucketKey struct {
	date   string
	period Period
}

// bucket accumulates the hours assigned to one (date, period) pair.
type bucket struct {
	temps     []float64
	winds     []float64
	humidity  []float64
	pressures []float64
	precip    []float64
	rain      []float64
	snowfall  []float64

	windDirs     []int
	weatherCodes []int

	snowEstimate float64
	ratios       []float64
	qualities    []snow.Quality // hour order; only hours with precipitation
}

// AggregatePeriods reduces one elevation's hourly series, plus the location's
// freezing-level series, into per-date AM/PM/NIGHT aggregates. The main
// series drives the date set: freezing samples landing on dates the main
// series never produced are discarded. The two series carry their own start,
// interval, and UTC offset because they come from different models.
func AggregatePeriods(main provider.PointSeries, freezing *provider.PointSeries) map[string]DayParts {
	buckets := make(map[bucketKey]*bucket)
	dateOrder := make(map[string]bool)

	n := main.Len()
	for i := 0; i < n; i++ {
		ts := sampleTime(main.Start, main.Interval, main.UTCOffset, i)
		key := bucketKey{date: ts.Format(dateLayout), period: periodForHour(ts.Hour())}

		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		dateOrder[key.date] = true

		sample := HourlySample{
			Time:            ts,
			WindSpeed:       main.Value(provider.VarWindSpeed, i),
			WindDirection:   int(main.Value(provider.VarWindDirection, i)),
			Temperature:     main.Value(provider.VarTemperature, i),
			Humidity:        main.Value(provider.VarHumidity, i),
			Precipitation:   main.Value(provider.VarPrecipitation, i),
			WeatherCode:     int(main.Value(provider.VarWeatherCode, i)),
			SurfacePressure: main.Value(provider.VarSurfacePressure, i),
			Rain:            main.Value(provider.VarRain, i),
			Snowfall:        main.Value(provider.VarSnowfall, i),
		}
		b.add(sample)
	}

	// Freezing levels bucket on their own cadence; only dates the main
	// series produced are kept.
	freezingMax := make(map[bucketKey]float64)
	if freezing != nil {
		fn := freezing.Len()
		for i := 0; i < fn; i++ {
			ts := sampleTime(freezing.Start, freezing.Interval, freezing.UTCOffset, i)
			key := bucketKey{date: ts.Format(dateLayout), period: periodForHour(ts.Hour())}
			if !dateOrder[key.date] {
				continue
			}
			level := freezing.Value(provider.VarFreezingLevel, i)
			if cur, ok := freezingMax[key]; !ok || level > cur {
				freezingMax[key] = level
			}
		}
	}

	days := make(map[string]DayParts, len(dateOrder))
	for key, b := range buckets {
		agg := b.reduce()
		if level, ok := freezingMax[key]; ok {
			rounded := round2(level)
			agg.FreezingLevelMax = &rounded
		}

		parts := days[key.date]
		switch key.period {
		case PeriodAM:
			parts.AM = agg
		case PeriodPM:
			parts.PM = agg
		default:
			parts.Night = agg
		}
		days[key.date] = parts
	}

	return days
}

func sampleTime(start, interval, utcOffset int64, i int) time.Time {
	return time.Unix(start+int64(i)*interval+utcOffset, 0).UTC()
}

func (b *bucket) add(s HourlySample) {
	b.temps = append(b.temps, s.Temperature)
	b.winds = append(b.winds, s.WindSpeed)
	b.humidity = append(b.humidity, s.Humidity)
	b.pressures = append(b.pressures, s.SurfacePressure)
	b.precip = append(b.precip, s.Precipitation)
	b.rain = append(b.rain, s.Rain)
	b.snowfall = append(b.snowfall, s.Snowfall)
	b.windDirs = append(b.windDirs, s.WindDirection)
	b.weatherCodes = append(b.weatherCodes, s.WeatherCode)

	est := snow.EstimateHour(s.Temperature, s.Humidity, s.Snowfall)
	b.snowEstimate += est.SnowCm
	if est.Ratio != 0 && s.Snowfall > 0 {
		b.ratios = append(b.ratios, est.Ratio)
	}
	if s.Precipitation > 0 {
		b.qualities = append(b.qualities, est.Quality)
	}
}

func (b *bucket) reduce() *PeriodAggregate {
	if len(b.temps) == 0 {
		return nil
	}

	lo, hi := minMax(b.temps)

	agg := &PeriodAggregate{
		TemperatureMax:    round2(hi),
		TemperatureMin:    round2(lo),
		TemperatureAvg:    round2(mean(b.temps)),
		TemperatureMedian: round2(median(b.temps)),

		WindSpeedAvg:  round2(mean(b.winds)),
		WindDirection: mode(b.windDirs),
		HumidityAvg:   round2(mean(b.humidity)),
		PressureAvg:   round2(mean(b.pressures)),

		PrecipitationSum: round4(sum(b.precip)),
		RainSum:          round4(sum(b.rain)),
		SnowfallSum:      round4(sum(b.snowfall)),

		WeatherCode: mode(b.weatherCodes),

		SnowfallEstimateCm: round2(b.snowEstimate),
	}

	if len(b.ratios) > 0 {
		agg.SnowRatioAvg = round2(mean(b.ratios))
	}

	// Worst quality is the minimum rank; first occurrence wins ties, which
	// the strict comparison gives for free.
	if len(b.qualities) > 0 {
		worst := b.qualities[0]
		for _, q := range b.qualities[1:] {
			if q < worst {
				worst = q
			}
		}
		agg.SnowQuality = &worst
	}

	return agg
}
