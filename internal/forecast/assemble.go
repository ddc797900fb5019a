package forecast

import (
	"log/slog"

	"github.com/snowcastio/snowcast/internal/geo"
	"github.com/snowcastio/snowcast/internal/provider"
)

// LocationSeries carries the fetched series of one resort: three elevation
// points plus the single location-based freezing-level point. A nil series
// means the owning chunk's provider call failed.
type LocationSeries struct {
	Base     *provider.PointSeries
	Mid      *provider.PointSeries
	Top      *provider.PointSeries
	Freezing *provider.PointSeries
}

// AssembleResort aggregates the three elevations of a resort into its
// published record. All elevations share the same freezing-level series since
// freezing level is a property of the location, not the elevation. If any
// elevation yields no forecast the resort is dropped for this cycle; the
// caller keeps whatever the cache already holds.
func AssembleResort(loc geo.Location, series LocationSeries, logger *slog.Logger) (ResortRecord, bool) {
	elevations := []struct {
		name   string
		point  *provider.PointSeries
		meters float64
	}{
		{"base", series.Base, loc.Elevations.Base},
		{"mid", series.Mid, loc.Elevations.Mid},
		{"top", series.Top, loc.Elevations.Top},
	}

	forecasts := make([]ElevationForecast, 0, len(elevations))
	for _, e := range elevations {
		if e.point == nil {
			logger.Warn("resort missing elevation series, dropping for this cycle",
				"resort", loc.ID, "elevation", e.name)
			return ResortRecord{}, false
		}

		days := AggregatePeriods(*e.point, series.Freezing)
		if len(days) == 0 {
			logger.Warn("resort elevation produced no forecast, dropping for this cycle",
				"resort", loc.ID, "elevation", e.name)
			return ResortRecord{}, false
		}

		forecasts = append(forecasts, ElevationForecast{
			Elevation: e.meters,
			Lat:       e.point.Latitude,
			Lon:       e.point.Longitude,
			Days:      days,
		})
	}

	return ResortRecord{
		ID:      loc.ID,
		Name:    loc.Name,
		Country: loc.Country,
		Base:    forecasts[0],
		Mid:     forecasts[1],
		Top:     forecasts[2],
	}, true
}
