// Package mapcmd defines the commands sent to the map widget. The widget
// only consumes commands; nothing flows back.
package mapcmd

import (
	"context"
	"sync"

	"nav-edge/internal/geo"
	"nav-edge/internal/maneuver"
)

type Kind string

const (
	SetCenter    Kind = "setCenter"
	SetZoom      Kind = "setZoom"
	PanTo        Kind = "panTo"
	SetHeading   Kind = "setHeading"
	UpsertMarker Kind = "upsertMarker"
	NextTurn     Kind = "nextTurn"
	DrawRoute    Kind = "drawRoute"
)

// ArrowMarker is the forward closed arrow used for the user's position.
const ArrowMarker = "forward-closed-arrow"

type Marker struct {
	Position geo.GeoPoint `json:"position" msgpack:"position"`
	Rotation float64      `json:"rotation" msgpack:"rotation"`
	Style    string       `json:"style" msgpack:"style"`
}

type Route struct {
	ID string `json:"id" msgpack:"id"`
	// GeoJSON LineString
	Geometry []byte `json:"geometry" msgpack:"geometry"`
}

// Command is a single instruction for the widget. Only the fields that
// belong to Kind are set. Zoom and Heading are always encoded because 0 is
// a real value for both (north, world view).
type Command struct {
	Kind    Kind              `json:"kind" msgpack:"kind"`
	Center  *geo.GeoPoint     `json:"center,omitempty" msgpack:"center,omitempty"`
	Zoom    int               `json:"zoom" msgpack:"zoom"`
	Heading float64           `json:"heading" msgpack:"heading"`
	Marker  *Marker           `json:"marker,omitempty" msgpack:"marker,omitempty"`
	Turn    *maneuver.Display `json:"turn,omitempty" msgpack:"turn,omitempty"`
	Route   *Route            `json:"route,omitempty" msgpack:"route,omitempty"`
}

func CenterAt(p geo.GeoPoint) Command { return Command{Kind: SetCenter, Center: &p} }
func Pan(p geo.GeoPoint) Command      { return Command{Kind: PanTo, Center: &p} }
func Zoom(z int) Command              { return Command{Kind: SetZoom, Zoom: z} }
func Heading(h float64) Command       { return Command{Kind: SetHeading, Heading: h} }

func UserMarker(p geo.GeoPoint, rotation float64) Command {
	return Command{Kind: UpsertMarker, Marker: &Marker{Position: p, Rotation: rotation, Style: ArrowMarker}}
}

func Turn(d maneuver.Display) Command { return Command{Kind: NextTurn, Turn: &d} }

// Sink delivers commands to the widget.
type Sink interface {
	Publish(ctx context.Context, cmds ...Command) error
}

// Recorder is an in-memory Sink. It keeps every command published to it.
type Recorder struct {
	mu   sync.Mutex
	cmds []Command
}

func (r *Recorder) Publish(_ context.Context, cmds ...Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmds...)
	return nil
}

func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.cmds...)
}

// Reset discards the recorded commands.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.cmds = nil
	r.mu.Unlock()
}

// Last returns the most recent command of the given kind.
func (r *Recorder) Last(k Kind) (Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.cmds) - 1; i >= 0; i-- {
		if r.cmds[i].Kind == k {
			return r.cmds[i], true
		}
	}
	return Command{}, false
}
