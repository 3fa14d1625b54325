package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"nav-edge/internal/geo"
	"nav-edge/internal/maneuver"
	"nav-edge/internal/mw"
	"nav-edge/internal/overlay"
	"nav-edge/internal/places"
)

var secret = []byte("test-secret")

type fakeSession struct {
	ready    bool
	routeErr error
	dest     geo.GeoPoint
}

func (f *fakeSession) State() overlay.State { return overlay.State{Ready: f.ready} }

func (f *fakeSession) Recenter(context.Context) error {
	if !f.ready {
		return overlay.ErrNotReady
	}
	return nil
}

func (f *fakeSession) Rotate(context.Context) (float64, error) { return 90, nil }

func (f *fakeSession) Search(_ context.Context, q string) ([]places.Place, error) {
	switch {
	case !f.ready:
		return nil, overlay.ErrNotReady
	case q == "":
		return nil, places.ErrEmptyQuery
	case q == "nowhere":
		return nil, places.ErrNoResults
	}
	return []places.Place{{ID: "p1", Name: q}}, nil
}

func (f *fakeSession) Details(_ context.Context, id string) (places.Place, error) {
	if id != "p1" {
		return places.Place{}, places.ErrNoResults
	}
	return places.Place{ID: id, Name: "Bryant Park"}, nil
}

func (f *fakeSession) RouteTo(_ context.Context, dest geo.GeoPoint) (maneuver.Display, error) {
	f.dest = dest
	if err := dest.Validate(); err != nil {
		return maneuver.Display{}, err
	}
	if f.routeErr != nil {
		return maneuver.Display{}, f.routeErr
	}
	return maneuver.Display{Arrow: maneuver.Right, Text: "Turn right", DistanceLabel: "0.10 mi"}, nil
}

func token(t *testing.T) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"device_id": "phone-1"}).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + s
}

func newServer(s *fakeSession) http.Handler {
	return NewRouter(Deps{
		Session: s,
		Ingest: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			_, _ = fmt.Fprint(w, mw.DeviceID(r.Context()))
		},
		Auth: mw.Auth(secret),
	})
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		name     string
		ready    bool
		routeErr error
		method   string
		path     string
		body     string
		auth     bool
		expected int
	}{
		{"health", false, nil, http.MethodGet, "/healthz", "", false, http.StatusOK},
		{"state requires token", true, nil, http.MethodGet, "/nav/state", "", false, http.StatusUnauthorized},
		{"state", true, nil, http.MethodGet, "/nav/state", "", true, http.StatusOK},
		{"ingest", true, nil, http.MethodPost, "/ingest/location", "{}", true, http.StatusAccepted},
		{"ingest requires token", true, nil, http.MethodPost, "/ingest/location", "{}", false, http.StatusUnauthorized},
		{"recenter not ready", false, nil, http.MethodPost, "/nav/recenter", "", true, http.StatusConflict},
		{"recenter", true, nil, http.MethodPost, "/nav/recenter", "", true, http.StatusOK},
		{"rotate", false, nil, http.MethodPost, "/nav/rotate", "", true, http.StatusOK},
		{"directions", true, nil, http.MethodPost, "/nav/directions", `{"lat":40.75,"lng":-73.98}`, true, http.StatusOK},
		{"directions bad json", true, nil, http.MethodPost, "/nav/directions", `{`, true, http.StatusBadRequest},
		{"directions bad point", true, nil, http.MethodPost, "/nav/directions", `{"lat":100,"lng":0}`, true, http.StatusBadRequest},
		{"directions failed", true, fmt.Errorf("%w: upstream", overlay.ErrRoutingFailed), http.MethodPost, "/nav/directions", `{"lat":40.75,"lng":-73.98}`, true, http.StatusBadGateway},
		{"directions not ready", true, overlay.ErrNotReady, http.MethodPost, "/nav/directions", `{"lat":40.75,"lng":-73.98}`, true, http.StatusConflict},
		{"search", true, nil, http.MethodGet, "/places/search?q=park", "", true, http.StatusOK},
		{"search empty", true, nil, http.MethodGet, "/places/search", "", true, http.StatusBadRequest},
		{"search no results", true, nil, http.MethodGet, "/places/search?q=nowhere", "", true, http.StatusNotFound},
		{"search not ready", false, nil, http.MethodGet, "/places/search?q=park", "", true, http.StatusConflict},
		{"details", true, nil, http.MethodGet, "/places/p1", "", true, http.StatusOK},
		{"details missing", true, nil, http.MethodGet, "/places/p2", "", true, http.StatusNotFound},
		{"wrong method", true, nil, http.MethodGet, "/nav/rotate", "", true, http.StatusMethodNotAllowed},
		{"ingest wrong method", true, nil, http.MethodGet, "/ingest/location", "", true, http.StatusMethodNotAllowed},
		{"search wrong method", true, nil, http.MethodPost, "/places/search?q=park", "", true, http.StatusMethodNotAllowed},
		{"unknown path", true, nil, http.MethodGet, "/nav/unknown", "", true, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newServer(&fakeSession{ready: tt.ready, routeErr: tt.routeErr})
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.auth {
				req.Header.Set("Authorization", token(t))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.expected {
				t.Errorf("%s %s: expected %d, got %d (%s)", tt.method, tt.path, tt.expected, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestDirectionsBody(t *testing.T) {
	s := &fakeSession{ready: true}
	req := httptest.NewRequest(http.MethodPost, "/nav/directions", strings.NewReader(`{"lat":40.7536,"lng":-73.9832}`))
	req.Header.Set("Authorization", token(t))
	rr := httptest.NewRecorder()
	newServer(s).ServeHTTP(rr, req)

	if s.dest != (geo.GeoPoint{Lat: 40.7536, Lng: -73.9832}) {
		t.Errorf("unexpected destination %+v", s.dest)
	}
	var d maneuver.Display
	if err := json.Unmarshal(rr.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d.Arrow != maneuver.Right || d.Text != "Turn right" {
		t.Errorf("unexpected banner %+v", d)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{fmt.Errorf("wrapped: %w", geo.ErrInvalidPoint), http.StatusBadRequest},
		{overlay.ErrNotReady, http.StatusConflict},
		{places.ErrNoResults, http.StatusNotFound},
		{fmt.Errorf("%w: %w", overlay.ErrRoutingFailed, errors.New("timeout")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.expected {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.expected, got)
		}
	}
}

func TestRunShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()
	cancel()
	if err := <-errc; err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}

func TestIngestLimitSeesDevice(t *testing.T) {
	var limited string
	h := NewRouter(Deps{
		Session: &fakeSession{ready: true},
		Ingest:  func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) },
		Auth:    mw.Auth(secret),
		Limit: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				limited = mw.DeviceID(r.Context())
				next.ServeHTTP(w, r)
			})
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/ingest/location", strings.NewReader("{}"))
	req.Header.Set("Authorization", token(t))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted || limited != "phone-1" {
		t.Errorf("expected the limiter to run after auth, got %d %q", rr.Code, limited)
	}
}
