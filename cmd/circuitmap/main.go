package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"circuitmap/internal/cache"
	"circuitmap/internal/config"
	"circuitmap/internal/domain"
	"circuitmap/internal/handler"
	"circuitmap/internal/hub"
	"circuitmap/internal/middleware"
	"circuitmap/internal/observability"
	"circuitmap/internal/routing"
	"circuitmap/internal/store"
	"circuitmap/pkg/osrm"
)

func main() {
	start := time.Now()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting circuitmap server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"osrm_url", cfg.OSRMURL,
		"osrm_profile", cfg.OSRMProfile,
		"redis_enabled", cfg.RedisEnabled,
	)

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	projectStore := store.New()
	wsHub := hub.NewHub(logger)
	wsHub.OnSessionCount(metrics.SetSessions)

	var provider routing.Provider = routing.NewOSRM(osrm.New(cfg.OSRMURL, cfg.OSRMProfile))

	var redisCache *cache.RedisCache
	var routeCache *cache.RouteCache
	if cfg.RedisEnabled {
		redisCache, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Warn("redis unavailable, routing without cache", "error", err)
			redisCache = nil
		} else {
			routeCache = cache.NewRouteCache(redisCache, cfg.OSRMProfile, cfg.RouteCacheTTL)
			provider = routing.WithCache(provider, routeCache, logger)
			if err := metrics.RegisterCacheStats(routeCache.Stats); err != nil {
				logger.Warn("cache metrics not registered", "error", err)
			}
			logger.Info("route cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.RouteCacheTTL)
			if cfg.CacheFlushOnStart {
				flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				n, err := redisCache.DeletePattern(flushCtx, cache.KeyRoutePattern)
				cancel()
				if err != nil {
					logger.Warn("route cache flush failed", "deleted", n, "error", err)
				} else {
					logger.Info("route cache flushed", "deleted", n)
				}
			}
		}
	}

	stats := handler.NewStats()
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerWindow, cfg.RateLimitWindow, cfg.RateLimitWhitelist, logger)
	limiter.OnLimited(func(path string) {
		stats.IncRateLimited()
		metrics.ObserveRateLimited(path)
	})

	updateCounts := func(int64) {
		metrics.SetStoreCounts(projectStore.Count(), projectStore.CircuitCount())
	}
	notify := func(projectID int64) {
		wsHub.NotifyProjectChanged(projectID, "")
		updateCounts(projectID)
	}

	sessionHandler := handler.NewSessionHandler(wsHub, projectStore, handler.SessionConfig{
		Provider:       provider,
		RoutingTimeout: cfg.RoutingTimeout,
		SendBuffer:     cfg.WSSendBuffer,
		Center:         domain.LatLng{Lat: cfg.MapCenterLat, Lng: cfg.MapCenterLng},
		Zoom:           cfg.MapZoom,
		OnChange:       updateCounts,
	}, stats, metrics, logger)
	projectsHandler := handler.NewProjectsHandler(projectStore, notify, logger)
	routeHandler := handler.NewRouteHandler(provider, cfg.RoutingTimeout, metrics, logger)
	statsHandler := handler.NewStatsHandler(stats, projectStore, wsHub, cacheStats(routeCache))

	var redisPinger handler.Pinger
	if redisCache != nil {
		redisPinger = redisCache
	}
	healthHandler := handler.NewHealthHandler(projectStore, redisPinger)

	api := http.NewServeMux()
	api.HandleFunc("GET /v1/projects", projectsHandler.ListProjects)
	api.HandleFunc("POST /v1/projects", projectsHandler.CreateProject)
	api.HandleFunc("GET /v1/projects/{id}", projectsHandler.GetProject)
	api.HandleFunc("PATCH /v1/projects/{id}", projectsHandler.RenameProject)
	api.HandleFunc("DELETE /v1/projects/{id}", projectsHandler.DeleteProject)
	api.HandleFunc("GET /v1/projects/{id}/geojson", projectsHandler.GetProjectGeoJSON)
	api.Handle("POST /v1/route", limiter.Middleware(http.HandlerFunc(routeHandler.Route)))
	api.HandleFunc("GET /v1/stats", statsHandler.GetStats)

	mux := http.NewServeMux()
	mux.Handle("/v1/", handler.CORSMiddleware(cfg.CORSAllowedOrigins)(handler.GzipMiddleware(api)))
	mux.HandleFunc("GET /v1/ws", sessionHandler.ServeWS)
	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go wsHub.Run(ctx)
	go limiter.Run(ctx)

	if routeCache != nil && cfg.CacheWarmOnStart {
		warmer := cache.NewCacheWarmer(provider, projectStore, cfg.RoutingTimeout, logger)
		go warmer.WarmAll(ctx)
	}

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete", "uptime", time.Since(start).Round(time.Second))
}

func cacheStats(c *cache.RouteCache) func() (int64, int64) {
	if c == nil {
		return nil
	}
	return c.Stats
}
