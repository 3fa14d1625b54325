// internal/routing/google.go
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"nav-edge/internal/geo"
	"nav-edge/internal/maneuver"
)

const GoogleDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"

// Google queries the Directions API.
type Google struct {
	BaseURL    string
	APIKey     string
	httpClient *http.Client
}

func NewGoogle(baseURL, apiKey string, timeout time.Duration) *Google {
	if baseURL == "" {
		baseURL = GoogleDirectionsURL
	}
	return &Google{BaseURL: baseURL, APIKey: apiKey, httpClient: newHTTPClient(timeout)}
}

type googleLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleValue struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Distance googleValue `json:"distance"`
			Duration googleValue `json:"duration"`
			Steps    []struct {
				HTMLInstructions string       `json:"html_instructions"`
				Maneuver         string       `json:"maneuver"`
				Distance         googleValue  `json:"distance"`
				StartLocation    googleLatLng `json:"start_location"`
				EndLocation      googleLatLng `json:"end_location"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

func latLngParam(p geo.GeoPoint) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

func (g *Google) Route(ctx context.Context, req Request) (Route, error) {
	if err := req.Validate(); err != nil {
		return Route{}, err
	}
	q := url.Values{}
	q.Set("origin", latLngParam(req.Origin))
	q.Set("destination", latLngParam(req.Destination))
	q.Set("mode", req.mode())
	q.Set("key", g.APIKey)

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Route{}, err
	}
	resp, err := g.httpClient.Do(hreq)
	if err != nil {
		return Route{}, fmt.Errorf("directions request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Route{}, fmt.Errorf("directions returned HTTP %d", resp.StatusCode)
	}

	var parsed googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Route{}, fmt.Errorf("directions decode: %w", err)
	}
	switch parsed.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return Route{}, ErrNoRoute
	default:
		return Route{}, fmt.Errorf("directions status %s: %s", parsed.Status, parsed.ErrorMessage)
	}
	if len(parsed.Routes) == 0 || len(parsed.Routes[0].Legs) == 0 {
		return Route{}, ErrNoRoute
	}

	leg := parsed.Routes[0].Legs[0]
	r := Route{
		ID:              uuid.NewString(),
		DistanceMeters:  leg.Distance.Value,
		DurationSeconds: leg.Duration.Value,
	}
	for i, s := range leg.Steps {
		r.Steps = append(r.Steps, maneuver.RouteStep{
			ManeuverHint:    s.Maneuver,
			InstructionHTML: s.HTMLInstructions,
			DistanceMeters:  s.Distance.Value,
		})
		if i == 0 {
			r.Path = append(r.Path, orb.Point{s.StartLocation.Lng, s.StartLocation.Lat})
		}
		r.Path = append(r.Path, orb.Point{s.EndLocation.Lng, s.EndLocation.Lat})
	}
	return r, nil
}
