// internal/ingest/handler.go
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"nav-edge/internal/mw"
	"nav-edge/internal/tracker"
)

type Deduper interface {
	CheckIdempotency(ctx context.Context, device string, seq int64) (bool, error)
}

type FixSink interface {
	OnFix(ctx context.Context, f tracker.Fix) error
}

// Handler accepts the high-accuracy stream pushed by phones.
type Handler struct {
	Dedup       Deduper
	Sink        FixSink
	MaxAccuracy float64
	Log         *slog.Logger
}

func NewHandler(dedup Deduper, sink FixSink, maxAccuracy float64, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Dedup: dedup, Sink: sink, MaxAccuracy: maxAccuracy, Log: log}
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	deviceID := mw.DeviceID(r.Context())

	var p LocationPoint
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	// the token decides the device, not the payload
	p.DeviceID = deviceID

	if err := p.Validate(h.MaxAccuracy); err != nil {
		http.Error(w, "invalid payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	ok, err := h.Dedup.CheckIdempotency(r.Context(), p.DeviceID, p.Seq)
	if err != nil {
		h.Log.Error("idempotency check", slog.Any("error", err))
		http.Error(w, "idem check error", http.StatusInternalServerError)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"duplicate"}`))
		return
	}

	if err := h.Sink.OnFix(r.Context(), p.Fix()); err != nil {
		h.Log.Warn("fix rejected", slog.String("device", p.DeviceID), slog.Any("error", err))
		http.Error(w, "fix rejected", http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
