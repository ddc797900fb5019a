package geo

// Elevations holds the three forecast elevations of a resort in meters.
type Elevations struct {
	Base float64 `json:"base"`
	Mid  float64 `json:"mid"`
	Top  float64 `json:"top"`
}

// Location is one queryable resort from the static hierarchy.
type Location struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Continent  string     `json:"continent"`
	Country    string     `json:"country"`
	Province   string     `json:"province"`
	Lat        *float64   `json:"lat"`
	Lon        *float64   `json:"lon"`
	Elevations Elevations `json:"elevations"`
}

// HasCoordinates reports whether the location can be sent to the provider.
// Locations without coordinates are skipped by batch planning.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}
