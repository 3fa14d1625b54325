// Package overlay is the navigation session: it wires the location
// sources, the tracker, the camera state machine, routing and the next-turn
// banner together.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"nav-edge/internal/geo"
	"nav-edge/internal/locate"
	"nav-edge/internal/maneuver"
	"nav-edge/internal/mapcmd"
	"nav-edge/internal/navigation"
	"nav-edge/internal/places"
	"nav-edge/internal/routing"
	"nav-edge/internal/tracker"
	"nav-edge/internal/turn"
)

var (
	// ErrNotReady means no location source has produced an Origin yet, so
	// destination search is disabled.
	ErrNotReady      = errors.New("location unavailable")
	ErrRoutingFailed = errors.New("routing failed")
)

type Locator interface {
	Locate(ctx context.Context) (geo.GeoPoint, error)
}

type Stream interface {
	Run(ctx context.Context, sink locate.FixSink) error
}

type Places interface {
	Search(ctx context.Context, query string) ([]places.Place, error)
	Details(ctx context.Context, id string) (places.Place, error)
}

type Deps struct {
	Sink    mapcmd.Sink
	Router  routing.Provider
	Places  Places
	Locator Locator
	// Stream is optional; phones may push fixes over HTTP instead.
	Stream   Stream
	Camera   navigation.Camera
	Tracking tracker.Options
	Log      *slog.Logger
}

type Overlay struct {
	Tracker *tracker.Tracker
	Nav     *navigation.Machine
	Turns   *turn.Controller

	deps Deps
	log  *slog.Logger

	mu      sync.Mutex
	routeID string
}

func New(d Deps) *Overlay {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	nav := navigation.New(d.Sink, d.Camera, d.Log.With(slog.String("component", "navigation")))
	return &Overlay{
		Tracker: tracker.New(d.Sink, nav, d.Tracking, d.Log.With(slog.String("component", "tracker"))),
		Nav:     nav,
		Turns:   turn.NewController(d.Sink, d.Log.With(slog.String("component", "turn"))),
		deps:    d,
		log:     d.Log,
	}
}

// Start sends the initial camera, then asks the coarse fallback once while
// the high-accuracy stream runs. It returns when ctx is done and both have
// finished.
func (o *Overlay) Start(ctx context.Context) error {
	if err := o.Nav.Init(ctx); err != nil {
		o.log.Warn("initial camera", slog.Any("error", err))
	}

	var eg errgroup.Group
	if o.deps.Locator != nil {
		eg.Go(func() error {
			o.coarseFallback(ctx)
			return nil
		})
	}
	if o.deps.Stream != nil {
		eg.Go(func() error {
			return o.deps.Stream.Run(ctx, o.Tracker)
		})
	}
	return eg.Wait()
}

func (o *Overlay) coarseFallback(ctx context.Context) {
	p, err := o.deps.Locator.Locate(ctx)
	if err != nil {
		o.Tracker.OnCoarseError(err)
		return
	}
	used, err := o.Tracker.OnCoarse(ctx, p)
	if err != nil {
		o.log.Warn("coarse fix", slog.Any("error", err))
		return
	}
	o.log.Info("coarse fix", slog.String("position", p.String()), slog.Bool("used", used))
}

type State struct {
	Origin   tracker.Origin    `json:"origin"`
	Ready    bool              `json:"ready"`
	Mode     navigation.Mode   `json:"mode"`
	Camera   navigation.Camera `json:"camera"`
	NextTurn *maneuver.Display `json:"next_turn,omitempty"`
	RouteID  string            `json:"route_id,omitempty"`
}

func (o *Overlay) State() State {
	origin := o.Tracker.Origin()
	s := State{
		Origin: origin,
		Ready:  origin.Known,
		Mode:   o.Nav.Mode(),
		Camera: o.Nav.Camera(),
	}
	if d, ok := o.Turns.Current(); ok {
		s.NextTurn = &d
	}
	o.mu.Lock()
	s.RouteID = o.routeID
	o.mu.Unlock()
	return s
}

// Recenter locks the camera on the user. Without an Origin nothing happens
// and ErrNotReady is returned.
func (o *Overlay) Recenter(ctx context.Context) error {
	return o.Tracker.With(func(origin tracker.Origin) error {
		if !origin.Known {
			return ErrNotReady
		}
		return o.Nav.Recenter(ctx, origin)
	})
}

func (o *Overlay) Rotate(ctx context.Context) (float64, error) {
	return o.Nav.RotateCamera(ctx)
}

func (o *Overlay) Search(ctx context.Context, query string) ([]places.Place, error) {
	if !o.Tracker.Ready() {
		return nil, ErrNotReady
	}
	return o.deps.Places.Search(ctx, query)
}

func (o *Overlay) Details(ctx context.Context, id string) (places.Place, error) {
	return o.deps.Places.Details(ctx, id)
}

// RouteTo requests driving directions from the Origin to dest. On failure
// the mode and the banner are left as they were.
func (o *Overlay) RouteTo(ctx context.Context, dest geo.GeoPoint) (maneuver.Display, error) {
	origin := o.Tracker.Origin()
	if !origin.Known {
		return maneuver.Display{}, ErrNotReady
	}
	if err := dest.Validate(); err != nil {
		return maneuver.Display{}, err
	}

	route, err := o.deps.Router.Route(ctx, routing.Request{
		Origin:      origin.Position,
		Destination: dest,
		Mode:        routing.ModeDriving,
	})
	if err == nil && len(route.Steps) == 0 {
		err = turn.ErrNoSteps
	}
	if err != nil {
		o.log.Error("routing", slog.String("destination", dest.String()), slog.Any("error", err))
		return maneuver.Display{}, fmt.Errorf("%w: %w", ErrRoutingFailed, err)
	}

	if err := o.drawRoute(ctx, route); err != nil {
		o.log.Warn("draw route", slog.Any("error", err))
	}
	o.Nav.StartRoute(ctx)
	o.mu.Lock()
	o.routeID = route.ID
	o.mu.Unlock()

	o.log.Info("route", slog.String("id", route.ID),
		slog.Float64("distance_m", route.DistanceMeters),
		slog.Int("steps", len(route.Steps)))
	return o.Turns.Show(ctx, route.Steps)
}

func (o *Overlay) drawRoute(ctx context.Context, r routing.Route) error {
	if len(r.Path) == 0 {
		return nil
	}
	data, err := geojson.NewGeometry(r.Path).MarshalJSON()
	if err != nil {
		return err
	}
	return o.deps.Sink.Publish(ctx, mapcmd.Command{
		Kind:  mapcmd.DrawRoute,
		Route: &mapcmd.Route{ID: r.ID, Geometry: data},
	})
}
