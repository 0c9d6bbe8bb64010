package handler

import (
	"context"
	"net/http"
	"time"

	"circuitmap/internal/store"
)

// Pinger is a dependency that must answer for the service to be ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store *store.Store
	redis Pinger
}

// NewHealthHandler checks redis on readiness when it is not nil.
func NewHealthHandler(st *store.Store, redis Pinger) *HealthHandler {
	return &HealthHandler{store: st, redis: redis}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready        bool      `json:"ready"`
	ProjectCount int       `json:"projectCount"`
	Redis        string    `json:"redis,omitempty"`
	ServerTime   time.Time `json:"serverTime"`
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{
		Ready:        true,
		ProjectCount: h.store.Count(),
		ServerTime:   time.Now(),
	}

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := h.redis.Ping(ctx)
		cancel()
		if err != nil {
			resp.Ready = false
			resp.Redis = err.Error()
		} else {
			resp.Redis = "ok"
		}
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}
