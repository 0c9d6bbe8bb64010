package cache

import (
	"context"
	"log/slog"
	"time"

	"circuitmap/internal/geo"
	"circuitmap/internal/routing"
	"circuitmap/internal/store"
)

// CacheWarmer computes the routes of every stored circuit through a caching
// provider so the first routing request of a session is answered from cache.
type CacheWarmer struct {
	provider routing.Provider
	store    *store.Store
	timeout  time.Duration
	logger   *slog.Logger
}

func NewCacheWarmer(provider routing.Provider, st *store.Store, timeout time.Duration, logger *slog.Logger) *CacheWarmer {
	return &CacheWarmer{
		provider: provider,
		store:    st,
		timeout:  timeout,
		logger:   logger.With("component", "cache_warmer"),
	}
}

// WarmAll returns the number of circuits whose route is now cached.
func (w *CacheWarmer) WarmAll(ctx context.Context) int {
	start := time.Now()
	w.logger.Info("starting cache warming")

	warmed, total := 0, 0
	for _, p := range w.store.Snapshot() {
		for _, c := range p.Circuits {
			if ctx.Err() != nil {
				w.logger.Info("cache warming interrupted", "warmed", warmed)
				return warmed
			}
			total++

			callCtx, cancel := context.WithTimeout(ctx, w.timeout)
			_, err := w.provider.ComputeRoute(callCtx, geo.LineStringToLatLngs(c.Geometry))
			cancel()
			if err != nil {
				w.logger.Debug("failed to warm route", "project_id", *p.ID, "circuit", c.Label, "error", err)
				continue
			}
			warmed++
		}
	}

	w.logger.Info("cache warming completed",
		"circuits_warmed", warmed,
		"total_circuits", total,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return warmed
}
