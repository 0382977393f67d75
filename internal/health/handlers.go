// Package health exposes the liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Probe checks one dependency.
type Probe func(ctx context.Context) error

// Handler serves the health endpoints. Probes are optional; a nil probe
// counts as healthy so the worker can reuse the handler without a DB.
type Handler struct {
	DB      Probe
	Redis   Probe
	Timeout time.Duration
}

// Live reports process liveness.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready probes every dependency and reports per-dependency status.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"db":    h.run(r.Context(), h.DB),
		"redis": h.run(r.Context(), h.Redis),
	}

	code := http.StatusOK
	for _, s := range status {
		if s != "ok" {
			code = http.StatusServiceUnavailable
			break
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) run(ctx context.Context, probe Probe) string {
	if probe == nil {
		return "ok"
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := probe(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}
