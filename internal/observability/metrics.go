package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics of the map service.
type Collector struct {
	reg      prometheus.Registerer
	gatherer prometheus.Gatherer

	RouteRequests  *prometheus.CounterVec
	RouteDurations *prometheus.HistogramVec
	Messages       *prometheus.CounterVec
	RateLimited    *prometheus.CounterVec

	Sessions prometheus.Gauge
	Projects prometheus.Gauge
	Circuits prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	routes, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circuitmap_route_requests_total",
		Help: "Routing requests, labeled by outcome.",
	}, []string{"outcome"}), "circuitmap_route_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "circuitmap_route_duration_seconds",
		Help:    "Routing request latency in seconds.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
	}, []string{"outcome"}), "circuitmap_route_duration_seconds")
	if err != nil {
		return nil, err
	}

	messages, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circuitmap_ws_messages_total",
		Help: "WebSocket messages, labeled by direction and type.",
	}, []string{"direction", "type"}), "circuitmap_ws_messages_total")
	if err != nil {
		return nil, err
	}

	limited, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circuitmap_rate_limited_total",
		Help: "Requests rejected by the rate limiter, labeled by path.",
	}, []string{"path"}), "circuitmap_rate_limited_total")
	if err != nil {
		return nil, err
	}

	sessions, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "circuitmap_ws_sessions",
		Help: "Open map editing sessions.",
	}), "circuitmap_ws_sessions")
	if err != nil {
		return nil, err
	}
	projects, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "circuitmap_projects",
		Help: "Projects held by the store.",
	}), "circuitmap_projects")
	if err != nil {
		return nil, err
	}
	circuits, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "circuitmap_circuits",
		Help: "Circuits held by the store across all projects.",
	}), "circuitmap_circuits")
	if err != nil {
		return nil, err
	}

	return &Collector{
		reg:            reg,
		gatherer:       gatherer,
		RouteRequests:  routes,
		RouteDurations: durations,
		Messages:       messages,
		RateLimited:    limited,
		Sessions:       sessions,
		Projects:       projects,
		Circuits:       circuits,
	}, nil
}

// ObserveRoute records one completed routing request.
func (c *Collector) ObserveRoute(outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.RouteRequests.WithLabelValues(outcome).Inc()
	c.RouteDurations.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveMessage(direction, msgType string) {
	if c == nil {
		return
	}
	c.Messages.WithLabelValues(direction, msgType).Inc()
}

func (c *Collector) ObserveRateLimited(path string) {
	if c == nil {
		return
	}
	c.RateLimited.WithLabelValues(path).Inc()
}

func (c *Collector) SetSessions(n int) {
	if c == nil {
		return
	}
	c.Sessions.Set(float64(n))
}

func (c *Collector) SetStoreCounts(projects, circuits int) {
	if c == nil {
		return
	}
	c.Projects.Set(float64(projects))
	c.Circuits.Set(float64(circuits))
}

// RegisterCacheStats exposes route cache hits and misses read from stats at
// scrape time.
func (c *Collector) RegisterCacheStats(stats func() (hits, misses int64)) error {
	hits := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "circuitmap_route_cache_hits_total",
		Help: "Route cache hits.",
	}, func() float64 {
		h, _ := stats()
		return float64(h)
	})
	misses := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "circuitmap_route_cache_misses_total",
		Help: "Route cache misses.",
	}, func() float64 {
		_, m := stats()
		return float64(m)
	})
	if err := c.reg.Register(hits); err != nil {
		return fmt.Errorf("register cache hits: %w", err)
	}
	if err := c.reg.Register(misses); err != nil {
		return fmt.Errorf("register cache misses: %w", err)
	}
	return nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
