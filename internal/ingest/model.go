package ingest

import (
	"errors"
	"time"

	"nav-edge/internal/geo"
	"nav-edge/internal/tracker"
)

// LocationPoint is one fix pushed by a device.
type LocationPoint struct {
	DeviceID   string    `json:"device_id"`
	TS         time.Time `json:"ts"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	HeadingDeg *float64  `json:"heading_deg,omitempty"`
	AccuracyM  float64   `json:"accuracy_m"`
	Seq        int64     `json:"seq"`
}

func (p *LocationPoint) Validate(maxAcc float64) error {
	if p.DeviceID == "" {
		return errors.New("device_id required")
	}
	if err := p.Position().Validate(); err != nil {
		return err
	}
	if p.AccuracyM <= 0 || p.AccuracyM > maxAcc {
		return errors.New("poor accuracy")
	}
	if p.TS.IsZero() {
		p.TS = time.Now().UTC()
	}
	return nil
}

func (p *LocationPoint) Position() geo.GeoPoint {
	return geo.GeoPoint{Lat: p.Lat, Lng: p.Lng}
}

func (p *LocationPoint) Fix() tracker.Fix {
	return tracker.Fix{Position: p.Position(), Heading: p.HeadingDeg, At: p.TS}
}
