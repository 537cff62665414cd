package domain

import "math"

// Earth radius used for great-circle distances, in meters.
const earthRadiusMeters = 6371000.0

// Immutable geographic location. Address is informational and does not
// participate in equality.
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address,omitempty"`
}

// HaversineMeters returns the great-circle distance to other in meters.
// Latitude/longitude ranges are not validated; callers are trusted.
func (l Location) HaversineMeters(other Location) float64 {
	lat1 := l.Lat * math.Pi / 180
	lon1 := l.Lon * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	lon2 := other.Lon * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// SamePoint reports whether two locations share coordinates exactly.
// Motion snaps drivers onto waypoints, so exact comparison is reliable
// for arrival matching.
func (l Location) SamePoint(other Location) bool {
	return l.Lat == other.Lat && l.Lon == other.Lon
}
