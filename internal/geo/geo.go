// internal/geo/geo.go
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// EarthRadius is the mean Earth radius used for great-circle math, in meters.
const EarthRadius = 6371000.0

var ErrInvalidPoint = errors.New("invalid lat/lng")

// GeoPoint is a WGS84 position in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.Abs(p.Lat) > 90 || math.Abs(p.Lng) > 180 {
		return fmt.Errorf("%w: (%f, %f)", ErrInvalidPoint, p.Lat, p.Lng)
	}
	return nil
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%f, %f)", p.Lat, p.Lng)
}

// Orb returns the point in orb's [lng, lat] order.
func (p GeoPoint) Orb() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

func FromOrb(p orb.Point) GeoPoint {
	return GeoPoint{Lat: p.Lat(), Lng: p.Lon()}
}

func toRadians(d float64) float64 { return d * math.Pi / 180 }
func toDegrees(r float64) float64 { return r * 180 / math.Pi }

// DistanceMeters returns the haversine great-circle distance between a and b.
// The atan2 form keeps it well conditioned for nearly antipodal points.
func DistanceMeters(a, b GeoPoint) float64 {
	φ1 := toRadians(a.Lat)
	φ2 := toRadians(b.Lat)
	dφ := φ2 - φ1
	dλ := toRadians(b.Lng - a.Lng)

	h := math.Sin(dφ/2)*math.Sin(dφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(dλ/2)*math.Sin(dλ/2)
	// rounding can push h a hair outside [0,1]
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadius * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// InitialBearingDegrees returns the compass bearing, in [0,360), of the
// great circle leaving a towards b. The result for a == b is 0 and carries
// no meaning.
func InitialBearingDegrees(a, b GeoPoint) float64 {
	φ1 := toRadians(a.Lat)
	φ2 := toRadians(b.Lat)
	dλ := toRadians(b.Lng - a.Lng)

	y := math.Sin(dλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(dλ)
	return NormalizeHeading(toDegrees(math.Atan2(y, x)))
}

// NormalizeHeading maps h into [0,360).
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		// -1e-15 + 360 rounds to 360
		h = 0
	}
	return h
}

var compassPoints = [...]string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"}

// Compass returns the 8-point compass direction for a heading.
func Compass(h float64) string {
	idx := int((NormalizeHeading(h)+22.5)/45) % len(compassPoints)
	return compassPoints[idx]
}
