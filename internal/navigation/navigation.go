// internal/navigation/navigation.go
package navigation

import (
	"context"
	"log/slog"
	"sync"

	"nav-edge/internal/geo"
	"nav-edge/internal/mapcmd"
	"nav-edge/internal/tracker"
)

const (
	// OverviewZoom is used when the user asks to recenter.
	OverviewZoom = 10
	// FollowZoom is used while following an active route.
	FollowZoom = 18
)

type Mode int

const (
	Idle Mode = iota
	Located
	Navigating
)

func (m Mode) String() string {
	switch m {
	case Located:
		return "located"
	case Navigating:
		return "navigating"
	default:
		return "idle"
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Camera is what the machine last told the widget.
type Camera struct {
	Center  geo.GeoPoint `json:"center"`
	Zoom    int          `json:"zoom"`
	Heading float64      `json:"heading"`
}

// Machine owns the navigation mode and the camera. All camera commands go
// through its methods.
type Machine struct {
	mu         sync.Mutex
	mode       Mode
	camera     Camera
	followZoom int
	sink       mapcmd.Sink
	log        *slog.Logger
}

func New(sink mapcmd.Sink, initial Camera, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	return &Machine{
		camera:     initial,
		followZoom: FollowZoom,
		sink:       sink,
		log:        log,
	}
}

// Init sends the initial camera to the widget.
func (m *Machine) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sink.Publish(ctx,
		mapcmd.CenterAt(m.camera.Center),
		mapcmd.Zoom(m.camera.Zoom),
		mapcmd.Heading(m.camera.Heading))
}

func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

func (m *Machine) Camera() Camera {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.camera
}

// Follow is called on every Origin update. The first known Origin moves
// Idle to Located; while Navigating the camera is locked to the user.
func (m *Machine) Follow(ctx context.Context, o tracker.Origin) error {
	if !o.Known {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.mode {
	case Idle:
		m.mode = Located
		m.log.Info("origin located", slog.String("position", o.Position.String()))
	case Navigating:
		return m.lockOn(ctx, o.Position, m.followZoom)
	}
	return nil
}

// Recenter locks the camera on the user at the overview zoom. Subsequent
// location updates keep that zoom until a route is started. Without a known
// Origin it does nothing.
func (m *Machine) Recenter(ctx context.Context, o tracker.Origin) error {
	if !o.Known {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enter(Navigating)
	m.followZoom = OverviewZoom
	return m.lockOn(ctx, o.Position, OverviewZoom)
}

// StartRoute is called once a route has been computed. The camera follows
// the user at close zoom from the next location update on.
func (m *Machine) StartRoute(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enter(Navigating)
	m.followZoom = FollowZoom
}

// RotateCamera turns the camera 90° clockwise, whatever the mode.
func (m *Machine) RotateCamera(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.camera.Heading = geo.NormalizeHeading(m.camera.Heading + 90)
	return m.camera.Heading, m.sink.Publish(ctx, mapcmd.Heading(m.camera.Heading))
}

func (m *Machine) enter(mode Mode) {
	if m.mode != mode {
		m.log.Info("navigation mode", slog.String("from", m.mode.String()), slog.String("to", mode.String()))
		m.mode = mode
	}
}

func (m *Machine) lockOn(ctx context.Context, p geo.GeoPoint, zoom int) error {
	m.camera.Center = p
	m.camera.Zoom = zoom
	return m.sink.Publish(ctx, mapcmd.Pan(p), mapcmd.Zoom(zoom))
}
