// internal/tracker/tracker.go
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nav-edge/internal/geo"
	"nav-edge/internal/mapcmd"
)

type Source int

const (
	None Source = iota
	Coarse
	Fine
)

func (s Source) String() string {
	switch s {
	case Coarse:
		return "coarse"
	case Fine:
		return "fine"
	default:
		return "none"
	}
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Origin is the user's current best-known position and heading.
type Origin struct {
	Position  geo.GeoPoint `json:"position"`
	Heading   float64      `json:"heading"`
	Known     bool         `json:"known"`
	Source    Source       `json:"source"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Fix is one report from the high-accuracy stream. Heading is nil when the
// device did not report one. A zero At is stamped with the arrival time.
type Fix struct {
	Position geo.GeoPoint
	Heading  *float64
	At       time.Time
}

// Follower is told about every Origin change.
type Follower interface {
	Follow(ctx context.Context, o Origin) error
}

type Options struct {
	// DeriveHeading fills a missing heading with the course from the
	// previous fine fix.
	DeriveHeading bool
	// MinCourseMeters is the displacement below which no course is derived.
	MinCourseMeters float64
}

// Tracker owns the Origin. A coarse fix is only taken while no Origin is
// known; once known, only the high-accuracy stream moves it.
type Tracker struct {
	mu       sync.Mutex
	origin   Origin
	sink     mapcmd.Sink
	follower Follower
	opts     Options
	log      *slog.Logger
	now      func() time.Time
}

func New(sink mapcmd.Sink, follower Follower, opts Options, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		sink:     sink,
		follower: follower,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

func (t *Tracker) Origin() Origin {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.origin
}

// With runs fn on the current Origin while holding the tracker lock, so no
// update lands between reading the Origin and acting on it. fn must not call
// back into the tracker.
func (t *Tracker) With(fn func(Origin) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.origin)
}

// Ready reports whether destination search may be enabled.
func (t *Tracker) Ready() bool {
	return t.Origin().Known
}

func (t *Tracker) OnFix(ctx context.Context, f Fix) error {
	if err := f.Position.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	heading := t.headingFor(f)
	at := f.At
	if at.IsZero() {
		at = t.now()
	}
	t.origin = Origin{
		Position:  f.Position,
		Heading:   heading,
		Known:     true,
		Source:    Fine,
		UpdatedAt: at,
	}
	return t.emit(ctx)
}

func (t *Tracker) headingFor(f Fix) float64 {
	if f.Heading != nil {
		return geo.NormalizeHeading(*f.Heading)
	}
	if !t.opts.DeriveHeading || t.origin.Source != Fine {
		return 0
	}
	if geo.DistanceMeters(t.origin.Position, f.Position) < t.opts.MinCourseMeters {
		return t.origin.Heading
	}
	return geo.InitialBearingDegrees(t.origin.Position, f.Position)
}

func (t *Tracker) OnStreamError(err error) {
	t.log.Warn("high-accuracy location failed", slog.Any("error", err))
}

// OnCoarse applies the one-shot fallback. It reports whether the fix was
// used; a fix arriving after any Origin is known is dropped.
func (t *Tracker) OnCoarse(ctx context.Context, p geo.GeoPoint) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.origin.Known {
		t.log.Debug("coarse fix discarded", slog.String("source", t.origin.Source.String()))
		return false, nil
	}
	t.origin = Origin{
		Position:  p,
		Known:     true,
		Source:    Coarse,
		UpdatedAt: t.now(),
	}
	return true, t.emit(ctx)
}

func (t *Tracker) OnCoarseError(err error) {
	t.log.Debug("coarse location failed", slog.Any("error", err))
}

// emit runs with t.mu held so that marker updates leave in Origin order.
func (t *Tracker) emit(ctx context.Context) error {
	o := t.origin
	var errs []error
	if err := t.sink.Publish(ctx, mapcmd.UserMarker(o.Position, o.Heading)); err != nil {
		errs = append(errs, fmt.Errorf("marker update: %w", err))
	}
	// the machine tracks Origin even when the widget is unreachable
	if t.follower != nil {
		if err := t.follower.Follow(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
