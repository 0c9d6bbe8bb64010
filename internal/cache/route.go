package cache

import (
	"context"
	"sync/atomic"
	"time"

	"circuitmap/internal/domain"
)

// Backend is the compressed JSON key-value store behind RouteCache.
// RedisCache implements it.
type Backend interface {
	SetJSONCompressed(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSONCompressed(ctx context.Context, key string, dest any) (bool, error)
}

// RouteCache stores computed routes keyed by profile and waypoints.
type RouteCache struct {
	backend Backend
	profile string
	ttl     time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewRouteCache(backend Backend, profile string, ttl time.Duration) *RouteCache {
	return &RouteCache{backend: backend, profile: profile, ttl: ttl}
}

func (c *RouteCache) GetRoute(ctx context.Context, waypoints []domain.LatLng) ([]domain.LatLng, bool, error) {
	var path []domain.LatLng
	ok, err := c.backend.GetJSONCompressed(ctx, KeyRoute(c.profile, waypoints), &path)
	if err != nil || !ok {
		c.misses.Add(1)
		return nil, false, err
	}
	c.hits.Add(1)
	return path, true, nil
}

func (c *RouteCache) SetRoute(ctx context.Context, waypoints, path []domain.LatLng) error {
	return c.backend.SetJSONCompressed(ctx, KeyRoute(c.profile, waypoints), path, c.ttl)
}

// Stats returns the hit and miss counts since start.
func (c *RouteCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
