package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/paulmach/orb/geo"

	"circuitmap/internal/domain"
	circuitgeo "circuitmap/internal/geo"
	"circuitmap/internal/routing"
	"circuitmap/pkg/osrm"
)

const maxRouteWaypoints = 100

// RouteHandler answers one-off routing requests outside a map session.
type RouteHandler struct {
	provider routing.Provider
	timeout  time.Duration
	observer routing.Observer
	logger   *slog.Logger
}

func NewRouteHandler(provider routing.Provider, timeout time.Duration, observer routing.Observer, logger *slog.Logger) *RouteHandler {
	return &RouteHandler{
		provider: provider,
		timeout:  timeout,
		observer: observer,
		logger:   logger.With("handler", "route"),
	}
}

type RouteRequest struct {
	Waypoints []domain.LatLng `json:"waypoints"`
}

type RouteResponse struct {
	Path     []domain.LatLng   `json:"path"`
	Geometry domain.LineString `json:"geometry"`
	// Meters along the path on the sphere.
	Length float64 `json:"length"`
}

func (h *RouteHandler) Route(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if n := len(req.Waypoints); n < 2 || n > maxRouteWaypoints {
		respondError(w, http.StatusBadRequest, "between 2 and 100 waypoints are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	start := time.Now()
	path, err := h.provider.ComputeRoute(ctx, req.Waypoints)
	outcome := routing.OutcomeOK
	if err != nil {
		outcome = routing.OutcomeError
	}
	if h.observer != nil {
		h.observer.ObserveRoute(outcome, time.Since(start))
	}

	if err != nil {
		h.logger.Warn("route failed", "waypoints", len(req.Waypoints), "error", err)
		switch {
		case errors.Is(err, osrm.ErrNoRoute):
			respondError(w, http.StatusUnprocessableEntity, "no route between waypoints")
		case errors.Is(err, context.DeadlineExceeded):
			respondError(w, http.StatusGatewayTimeout, "routing timed out")
		default:
			respondError(w, http.StatusBadGateway, "routing failed")
		}
		return
	}

	ls := circuitgeo.LatLngsToLineString(path)
	respondJSON(w, http.StatusOK, RouteResponse{
		Path:     path,
		Geometry: ls,
		Length:   geo.Length(circuitgeo.ToOrbLineString(ls)),
	})
}
