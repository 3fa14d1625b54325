// internal/routing/osrm.go
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"nav-edge/internal/geo"
	"nav-edge/internal/maneuver"
)

// OSRM queries an OSRM routing server. OSRM has no instruction text, so
// the hint and HTML are built from the step's maneuver.
type OSRM struct {
	BaseURL    string
	httpClient *http.Client
}

func NewOSRM(baseURL string, timeout time.Duration) *OSRM {
	return &OSRM{BaseURL: strings.TrimRight(baseURL, "/"), httpClient: newHTTPClient(timeout)}
}

type osrmManeuver struct {
	Type         string  `json:"type"`
	Modifier     string  `json:"modifier"`
	BearingAfter float64 `json:"bearing_after"`
}

type osrmStep struct {
	Distance float64      `json:"distance"`
	Name     string       `json:"name"`
	Maneuver osrmManeuver `json:"maneuver"`
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64           `json:"distance"`
		Duration float64           `json:"duration"`
		Geometry *geojson.Geometry `json:"geometry"`
		Legs     []struct {
			Steps []osrmStep `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

func (o *OSRM) Route(ctx context.Context, req Request) (Route, error) {
	if err := req.Validate(); err != nil {
		return Route{}, err
	}
	url := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson&steps=true",
		o.BaseURL, req.mode(), req.Origin.Lng, req.Origin.Lat, req.Destination.Lng, req.Destination.Lat)

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Route{}, err
	}
	resp, err := o.httpClient.Do(hreq)
	if err != nil {
		return Route{}, fmt.Errorf("osrm request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var parsed osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Route{}, fmt.Errorf("OSRM returned %d", resp.StatusCode)
		}
		return Route{}, fmt.Errorf("osrm decode: %w", err)
	}
	switch parsed.Code {
	case "Ok":
	case "NoRoute", "NoSegment":
		return Route{}, ErrNoRoute
	default:
		return Route{}, fmt.Errorf("osrm %s: %s", parsed.Code, parsed.Message)
	}
	if len(parsed.Routes) == 0 || len(parsed.Routes[0].Legs) == 0 {
		return Route{}, ErrNoRoute
	}

	first := parsed.Routes[0]
	r := Route{
		ID:              uuid.NewString(),
		DistanceMeters:  first.Distance,
		DurationSeconds: first.Duration,
	}
	if first.Geometry != nil {
		if ls, ok := first.Geometry.Geometry().(orb.LineString); ok {
			r.Path = ls
		}
	}
	for _, s := range first.Legs[0].Steps {
		r.Steps = append(r.Steps, maneuver.RouteStep{
			ManeuverHint:    osrmHint(s.Maneuver),
			InstructionHTML: osrmInstruction(s),
			DistanceMeters:  s.Distance,
		})
	}
	return r, nil
}

// osrmHint renders type and modifier the way Google spells maneuvers,
// e.g. turn + "slight left" -> "turn-slight-left".
func osrmHint(m osrmManeuver) string {
	parts := strings.Fields(m.Type + " " + m.Modifier)
	return strings.Join(parts, "-")
}

var osrmVerbs = map[string]string{
	"turn":        "Turn",
	"end of road": "Turn",
	"continue":    "Continue",
	"new name":    "Continue",
	"merge":       "Merge",
	"on ramp":     "Take the ramp",
	"off ramp":    "Take the exit",
	"fork":        "Keep",
	"roundabout":  "Enter the roundabout",
	"rotary":      "Enter the roundabout",
}

func osrmInstruction(s osrmStep) string {
	var b strings.Builder
	switch s.Maneuver.Type {
	case "depart":
		fmt.Fprintf(&b, "Head <b>%s</b>", geo.Compass(s.Maneuver.BearingAfter))
	case "arrive":
		return "Arrive at your destination"
	default:
		verb, ok := osrmVerbs[s.Maneuver.Type]
		if !ok {
			verb = "Continue"
			if t := s.Maneuver.Type; t != "" {
				verb = strings.ToUpper(t[:1]) + t[1:]
			}
		}
		b.WriteString(verb)
		if s.Maneuver.Modifier != "" && s.Maneuver.Modifier != "straight" {
			fmt.Fprintf(&b, " <b>%s</b>", s.Maneuver.Modifier)
		} else if s.Maneuver.Modifier == "straight" {
			b.WriteString(" straight")
		}
	}
	if s.Name != "" {
		fmt.Fprintf(&b, " onto <b>%s</b>", s.Name)
	}
	return b.String()
}
