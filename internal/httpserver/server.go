// internal/httpserver/server.go
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"nav-edge/internal/geo"
	"nav-edge/internal/maneuver"
	"nav-edge/internal/overlay"
	"nav-edge/internal/places"
)

// Session is the part of the overlay exposed over HTTP.
type Session interface {
	State() overlay.State
	Recenter(ctx context.Context) error
	Rotate(ctx context.Context) (float64, error)
	Search(ctx context.Context, query string) ([]places.Place, error)
	Details(ctx context.Context, id string) (places.Place, error)
	RouteTo(ctx context.Context, dest geo.GeoPoint) (maneuver.Display, error)
}

type Deps struct {
	Session Session
	Ingest  http.HandlerFunc
	Auth    mux.MiddlewareFunc
	// Limit is applied to the ingest route only; nil disables it.
	Limit mux.MiddlewareFunc
	Log   *slog.Logger
}

func NewRouter(d Deps) *mux.Router {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	a := &api{s: d.Session, log: d.Log}

	// Routes live on the root router so a method mismatch answers 405;
	// gorilla subrouters answer 404 instead.
	auth := func(h http.HandlerFunc) http.Handler { return d.Auth(h) }
	var ingestH http.Handler = d.Ingest
	if d.Limit != nil {
		ingestH = d.Limit(ingestH)
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/ingest/location", d.Auth(ingestH)).Methods(http.MethodPost)

	r.Handle("/nav/state", auth(a.state)).Methods(http.MethodGet)
	r.Handle("/nav/recenter", auth(a.recenter)).Methods(http.MethodPost)
	r.Handle("/nav/rotate", auth(a.rotate)).Methods(http.MethodPost)
	r.Handle("/nav/directions", auth(a.directions)).Methods(http.MethodPost)

	r.Handle("/places/search", auth(a.search)).Methods(http.MethodGet)
	r.Handle("/places/{id}", auth(a.details)).Methods(http.MethodGet)

	return r
}

// Run serves h on addr until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func Run(ctx context.Context, addr string, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("nav edge listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutdown signal received")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return <-errc
}

type api struct {
	s   Session
	log *slog.Logger
}

func (a *api) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.s.State())
}

func (a *api) recenter(w http.ResponseWriter, r *http.Request) {
	if err := a.s.Recenter(r.Context()); err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.s.State())
}

func (a *api) rotate(w http.ResponseWriter, r *http.Request) {
	heading, err := a.s.Rotate(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"heading": heading})
}

func (a *api) directions(w http.ResponseWriter, r *http.Request) {
	var dest geo.GeoPoint
	if err := json.NewDecoder(r.Body).Decode(&dest); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	d, err := a.s.RouteTo(r.Context(), dest)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *api) search(w http.ResponseWriter, r *http.Request) {
	res, err := a.s.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) details(w http.ResponseWriter, r *http.Request) {
	p, err := a.s.Details(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *api) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.log.Error("request failed", slog.Int("status", status), slog.Any("error", err))
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, geo.ErrInvalidPoint), errors.Is(err, places.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, overlay.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, places.ErrNoResults):
		return http.StatusNotFound
	case errors.Is(err, overlay.ErrRoutingFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
