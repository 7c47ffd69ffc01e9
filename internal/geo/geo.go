package geo

import "math"

// Earth radius constants. The unit of a computed distance is selected purely
// by which radius the caller passes in.
const (
	EarthRadiusMiles = 3959.0
	EarthRadiusKm    = 6371.0
)

// Coordinates is the canonical location type used across the service. Any
// adaptation from looser wire formats happens at the handler boundary; core
// logic only ever sees this type.
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Valid reports whether both components are real numbers.
func (c Coordinates) Valid() bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		!math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0)
}

// Distance computes the great-circle distance between a and b using the
// haversine formula. earthRadius selects the unit (EarthRadiusMiles or
// EarthRadiusKm). Invalid coordinates yield +Inf so that any comparison
// against a finite radius bound is false.
func Distance(a, b Coordinates, earthRadius float64) float64 {
	if !a.Valid() || !b.Valid() {
		return math.Inf(1)
	}
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadius * c
}

// Miles is shorthand for Distance in miles, the unit used by the matcher.
func Miles(a, b Coordinates) float64 {
	return Distance(a, b, EarthRadiusMiles)
}

// Round2 rounds a distance to two decimal places for presentation alongside
// match results.
func Round2(d float64) float64 {
	if math.IsInf(d, 0) || math.IsNaN(d) {
		return d
	}
	return math.Round(d*100) / 100
}
