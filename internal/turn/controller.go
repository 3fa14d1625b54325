// Package turn keeps the next-turn banner for the current route.
package turn

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"nav-edge/internal/maneuver"
	"nav-edge/internal/mapcmd"
)

var ErrNoSteps = errors.New("route has no steps")

type Controller struct {
	mu      sync.Mutex
	current maneuver.Display
	shown   bool
	sink    mapcmd.Sink
	log     *slog.Logger
}

func NewController(sink mapcmd.Sink, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{sink: sink, log: log}
}

// Show formats the first step and publishes it. With no steps the previous
// banner stays as it was.
func (c *Controller) Show(ctx context.Context, steps []maneuver.RouteStep) (maneuver.Display, error) {
	if len(steps) == 0 {
		return maneuver.Display{}, ErrNoSteps
	}
	d := maneuver.Format(steps[0])

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = d
	c.shown = true
	c.log.Info("next turn", slog.String("banner", d.String()))
	return d, c.sink.Publish(ctx, mapcmd.Turn(d))
}

func (c *Controller) Current() (maneuver.Display, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.shown
}
