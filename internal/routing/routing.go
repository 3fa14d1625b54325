// Package routing asks an external routing engine for directions. Only the
// steps of the first leg of the first route are kept.
package routing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/paulmach/orb"

	"nav-edge/internal/geo"
	"nav-edge/internal/maneuver"
)

const ModeDriving = "driving"

var ErrNoRoute = errors.New("no route found")

type Request struct {
	Origin      geo.GeoPoint
	Destination geo.GeoPoint
	Mode        string
}

func (r Request) Validate() error {
	if err := r.Origin.Validate(); err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	if err := r.Destination.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	return nil
}

func (r Request) mode() string {
	if r.Mode == "" {
		return ModeDriving
	}
	return r.Mode
}

type Route struct {
	ID              string
	Steps           []maneuver.RouteStep
	Path            orb.LineString
	DistanceMeters  float64
	DurationSeconds float64
}

type Provider interface {
	Route(ctx context.Context, req Request) (Route, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
