package geo

import (
	"errors"
	"math"
	"testing"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name     string
		a, b     GeoPoint
		expected float64
		tol      float64
	}{
		{"same point", GeoPoint{40.758, -73.9855}, GeoPoint{40.758, -73.9855}, 0, 1e-9},
		{"one degree longitude at equator", GeoPoint{0, 0}, GeoPoint{0, 1}, 111195, 1111.95},
		{"one degree latitude", GeoPoint{0, 0}, GeoPoint{1, 0}, 111195, 1111.95},
		{"antipodal", GeoPoint{0, 0}, GeoPoint{0, 180}, math.Pi * EarthRadius, 1},
		{"pole to pole", GeoPoint{90, 0}, GeoPoint{-90, 0}, math.Pi * EarthRadius, 1},
		{"date line crossing", GeoPoint{0, 179.5}, GeoPoint{0, -179.5}, 111195, 1111.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.tol {
				t.Errorf("expected %f±%f, got %f", tt.expected, tt.tol, got)
			}
			if back := DistanceMeters(tt.b, tt.a); back != got {
				t.Errorf("distance not symmetric: %f vs %f", got, back)
			}
			if math.IsNaN(got) {
				t.Errorf("got NaN")
			}
		})
	}
}

func TestDistanceMetersNearlyAntipodal(t *testing.T) {
	a := GeoPoint{Lat: 10, Lng: 20}
	b := GeoPoint{Lat: -10, Lng: -160 + 1e-9}
	d := DistanceMeters(a, b)
	if math.IsNaN(d) || d > math.Pi*EarthRadius+1 || d < math.Pi*EarthRadius-1 {
		t.Errorf("expected half circumference, got %f", d)
	}
}

func TestInitialBearingDegrees(t *testing.T) {
	tests := []struct {
		name     string
		a, b     GeoPoint
		expected float64
	}{
		{"due north", GeoPoint{0, 0}, GeoPoint{1, 0}, 0},
		{"due east", GeoPoint{0, 0}, GeoPoint{0, 1}, 90},
		{"due south", GeoPoint{0, 0}, GeoPoint{-1, 0}, 180},
		{"due west", GeoPoint{0, 0}, GeoPoint{0, -1}, 270},
		{"east across date line", GeoPoint{0, 179.5}, GeoPoint{0, -179.5}, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InitialBearingDegrees(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
			if got < 0 || got >= 360 {
				t.Errorf("bearing %f out of range", got)
			}
		})
	}
}

func TestNormalizeHeading(t *testing.T) {
	for _, c := range []struct{ in, out float64 }{
		{0, 0}, {90, 90}, {360, 0}, {450, 90}, {-90, 270}, {-720, 0}, {359.5, 359.5},
	} {
		if got := NormalizeHeading(c.in); got != c.out {
			t.Errorf("NormalizeHeading(%f): expected %f, got %f", c.in, c.out, got)
		}
	}
}

func TestCompass(t *testing.T) {
	for _, c := range []struct {
		h    float64
		name string
	}{
		{0, "north"}, {22, "north"}, {23, "northeast"}, {90, "east"}, {181, "south"}, {300, "northwest"}, {350, "north"},
	} {
		if got := Compass(c.h); got != c.name {
			t.Errorf("Compass(%f): expected %s, got %s", c.h, c.name, got)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := []GeoPoint{{0, 0}, {90, 180}, {-90, -180}}
	for _, p := range valid {
		if err := p.Validate(); err != nil {
			t.Errorf("%v: unexpected error %v", p, err)
		}
	}
	invalid := []GeoPoint{{91, 0}, {0, 180.1}, {math.NaN(), 0}}
	for _, p := range invalid {
		if err := p.Validate(); !errors.Is(err, ErrInvalidPoint) {
			t.Errorf("%v: expected ErrInvalidPoint, got %v", p, err)
		}
	}
}

func TestOrbRoundTrip(t *testing.T) {
	p := GeoPoint{Lat: 40.758, Lng: -73.9855}
	o := p.Orb()
	if o[0] != p.Lng || o[1] != p.Lat {
		t.Errorf("expected [lng, lat], got %v", o)
	}
	if FromOrb(o) != p {
		t.Errorf("expected %v, got %v", p, FromOrb(o))
	}
}
