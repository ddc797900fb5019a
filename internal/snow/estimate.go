package snow

import "math"

// Quality is a snow quality class, ordered from worst (rain) to best (powder).
type Quality int

const (
	QualityRain Quality = iota
	QualitySleet
	QualityWetSnow
	QualityDrySnow
	QualityPowder
)

var qualityNames = map[Quality]string{
	QualityRain:    "rain",
	QualitySleet:   "sleet/mix",
	QualityWetSnow: "wet_snow",
	QualityDrySnow: "dry_snow",
	QualityPowder:  "powder",
}

func (q Quality) String() string {
	if name, ok := qualityNames[q]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON renders the quality as its display name.
func (q Quality) MarshalJSON() ([]byte, error) {
	return []byte(`"` + q.String() + `"`), nil
}

// snowDensityDivisor is the fixed snow density Open-Meteo applies when it
// converts liquid equivalent to snowfall centimeters (7:1).
const snowDensityDivisor = 0.7

// Estimate is the derived snow view of a single forecast hour.
type Estimate struct {
	SnowCm       float64
	Ratio        float64
	SnowFraction float64
	Quality      Quality
}

// WetBulb computes the wet-bulb temperature in Celsius from dry-bulb
// temperature and relative humidity using the Stull (2011) approximation.
// Humidity is clamped to [0,100] before use.
func WetBulb(tempC, humidityPct float64) float64 {
	rh := clamp(humidityPct, 0, 100)

	return tempC*math.Atan(0.151977*math.Sqrt(rh+8.313659)) +
		math.Atan(tempC+rh) -
		math.Atan(rh-1.676331) +
		0.00391838*math.Pow(rh, 1.5)*math.Atan(0.023101*rh) -
		4.686035
}

// SnowFraction returns the proportion of precipitation expected to accumulate
// as snow for a given wet-bulb temperature.
func SnowFraction(wetBulbC float64) float64 {
	switch {
	case wetBulbC >= 0.5:
		return 0.0
	case wetBulbC >= -0.5:
		return 0.1
	case wetBulbC > -2.0:
		// Linear ramp from 0.2 at -0.5 up to 1.0 at -2.0.
		return clamp(0.2+0.8*(-0.5-wetBulbC)/1.5, 0, 1)
	default:
		return 1.0
	}
}

// LiquidRatio returns the snow-to-liquid ratio for a wet-bulb temperature,
// banded by crystal habit (Kuchera-style). Ratios peak inside the dendritic
// growth zone and fall off again in very cold air.
func LiquidRatio(wetBulbC float64) float64 {
	switch {
	case wetBulbC > 0:
		return 1
	case wetBulbC > -4:
		return 3
	case wetBulbC > -10:
		return 7
	case wetBulbC > -12:
		return 12
	case wetBulbC > -18:
		return 20
	default:
		return 12
	}
}

// Classify maps a wet-bulb temperature and snow fraction to a quality class.
func Classify(wetBulbC, fraction float64) Quality {
	switch {
	case fraction == 0:
		return QualityRain
	case fraction < 0.5:
		return QualitySleet
	case wetBulbC > -4:
		return QualityWetSnow
	case wetBulbC >= -18 && wetBulbC <= -12:
		return QualityPowder
	default:
		return QualityDrySnow
	}
}

// EstimateHour derives the snow estimate for one forecast hour. snowfallCm is
// the provider's snowfall value, already divided by the fixed snow density;
// it is converted back to liquid millimeters before the ratio is applied.
func EstimateHour(tempC, humidityPct, snowfallCm float64) Estimate {
	wb := WetBulb(tempC, humidityPct)
	fraction := SnowFraction(wb)
	ratio := LiquidRatio(wb)

	liquidMm := snowfallCm / snowDensityDivisor
	snowMm := liquidMm * ratio

	return Estimate{
		SnowCm:       snowMm / 10,
		Ratio:        ratio,
		SnowFraction: fraction,
		Quality:      Classify(wb, fraction),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
