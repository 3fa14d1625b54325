// internal/locate/gpsd.go
package locate

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"nav-edge/internal/geo"
	"nav-edge/internal/tracker"
)

// FixSink receives the high-accuracy stream.
type FixSink interface {
	OnFix(ctx context.Context, f tracker.Fix) error
	OnStreamError(err error)
}

type tpvMessage struct {
	Class string   `json:"class"`
	Mode  int      `json:"mode"`
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	Track *float64 `json:"track"`
}

// Gpsd reads TPV reports from a gpsd daemon.
type Gpsd struct {
	Addr       string
	RetryDelay time.Duration
}

func NewGpsd(addr string) *Gpsd {
	return &Gpsd{Addr: addr, RetryDelay: 5 * time.Second}
}

// Run streams fixes into sink until ctx is done, reconnecting after every
// failure.
func (g *Gpsd) Run(ctx context.Context, sink FixSink) error {
	for {
		err := g.session(ctx, sink)
		if ctx.Err() != nil {
			return nil
		}
		sink.OnStreamError(err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(g.RetryDelay):
		}
	}
}

func (g *Gpsd) session(ctx context.Context, sink FixSink) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", g.Addr)
	if err != nil {
		return fmt.Errorf("gpsd dial %s: %w", g.Addr, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if _, err := conn.Write([]byte("?WATCH={\"enable\":true,\"json\":true}\n")); err != nil {
		return fmt.Errorf("gpsd watch: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var msg tpvMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Class != "TPV" || msg.Mode < 2 {
			continue
		}
		fix := tracker.Fix{Position: geo.GeoPoint{Lat: msg.Lat, Lng: msg.Lon}, Heading: msg.Track}
		if err := sink.OnFix(ctx, fix); err != nil {
			sink.OnStreamError(err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("gpsd read: %w", err)
	}
	return fmt.Errorf("gpsd %s closed the connection", g.Addr)
}
