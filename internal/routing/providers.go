package routing

import (
	"context"
	"log/slog"

	"github.com/paulmach/orb"

	"circuitmap/internal/domain"
	"circuitmap/internal/geo"
	"circuitmap/pkg/osrm"
)

// OSRM is a Provider backed by an OSRM route service.
type OSRM struct {
	client *osrm.Client
}

func NewOSRM(client *osrm.Client) *OSRM {
	return &OSRM{client: client}
}

func (o *OSRM) ComputeRoute(ctx context.Context, waypoints []domain.LatLng) ([]domain.LatLng, error) {
	points := make([]orb.Point, len(waypoints))
	for i, ll := range waypoints {
		points[i] = geo.LatLngToOrb(ll)
	}
	route, err := o.client.Route(ctx, points)
	if err != nil {
		return nil, err
	}
	return geo.OrbToLatLngs(route.Geometry), nil
}

// Store keeps computed paths keyed by their waypoints.
type Store interface {
	GetRoute(ctx context.Context, waypoints []domain.LatLng) ([]domain.LatLng, bool, error)
	SetRoute(ctx context.Context, waypoints, path []domain.LatLng) error
}

type cached struct {
	next   Provider
	store  Store
	logger *slog.Logger
}

// WithCache answers from store when possible and stores fresh results.
// Store failures are logged and never fail the request.
func WithCache(next Provider, store Store, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &cached{next: next, store: store, logger: logger.With("component", "route_cache")}
}

func (c *cached) ComputeRoute(ctx context.Context, waypoints []domain.LatLng) ([]domain.LatLng, error) {
	path, ok, err := c.store.GetRoute(ctx, waypoints)
	if err != nil {
		c.logger.Warn("cache read failed", "error", err)
	}
	if ok {
		return path, nil
	}

	path, err = c.next.ComputeRoute(ctx, waypoints)
	if err != nil {
		return nil, err
	}
	if err := c.store.SetRoute(ctx, waypoints, path); err != nil {
		c.logger.Warn("cache write failed", "error", err)
	}
	return path, nil
}
