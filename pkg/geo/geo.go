package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks the coordinate ranges.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude %v out of range", p.Lng)
	}
	return nil
}

// DistanceKm returns the haversine great-circle distance between two points.
// Order creation and nearby listings both use this function so the estimated
// and displayed distances always agree.
func DistanceKm(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// BoundingBox returns the lat/lng envelope containing every point within
// radiusKm of the center. Used as a cheap SQL prefilter before the exact
// haversine check.
func BoundingBox(center Point, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	latDelta := radiusKm / 111.0 // ~111km per degree of latitude
	minLat = center.Lat - latDelta
	maxLat = center.Lat + latDelta

	cos := math.Cos(center.Lat * math.Pi / 180)
	if cos < 0.01 {
		// Near the poles every longitude is within reach.
		return minLat, maxLat, -180, 180
	}
	lngDelta := radiusKm / (111.0 * cos)
	minLng = center.Lng - lngDelta
	maxLng = center.Lng + lngDelta
	return minLat, maxLat, minLng, maxLng
}
