package handler

import (
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"circuitmap/internal/hub"
	"circuitmap/internal/store"
)

// Stats counts server-wide activity for the /v1/stats endpoint.
type Stats struct {
	startTime     time.Time
	requestCount  atomic.Int64
	wsConnections atomic.Int64
	wsMessagesIn  atomic.Int64
	wsMessagesOut atomic.Int64
	rateLimited   atomic.Int64
}

func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) IncRequests()      { s.requestCount.Add(1) }
func (s *Stats) IncWSConnections() { s.wsConnections.Add(1) }
func (s *Stats) DecWSConnections() { s.wsConnections.Add(-1) }
func (s *Stats) IncWSMessagesIn()  { s.wsMessagesIn.Add(1) }
func (s *Stats) IncWSMessagesOut() { s.wsMessagesOut.Add(1) }
func (s *Stats) IncRateLimited()   { s.rateLimited.Add(1) }

type StatsHandler struct {
	stats      *Stats
	store      *store.Store
	hub        *hub.Hub
	cacheStats func() (hits, misses int64)
}

// NewStatsHandler reports on st and h. cacheStats may be nil when routes
// are not cached.
func NewStatsHandler(stats *Stats, st *store.Store, h *hub.Hub, cacheStats func() (hits, misses int64)) *StatsHandler {
	return &StatsHandler{stats: stats, store: st, hub: h, cacheStats: cacheStats}
}

type StatsResponse struct {
	Server    ServerStatsResponse    `json:"server"`
	Projects  ProjectStatsResponse   `json:"projects"`
	WebSocket WebSocketStatsResponse `json:"websocket"`
	Cache     *CacheStatsResponse    `json:"cache,omitempty"`
	Go        GoStatsResponse        `json:"go"`
}

type ServerStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
	RequestCount  int64     `json:"request_count"`
	RateLimited   int64     `json:"rate_limited"`
}

type ProjectStatsResponse struct {
	Projects int `json:"projects"`
	Circuits int `json:"circuits"`
}

type WebSocketStatsResponse struct {
	Connections int64 `json:"connections"`
	Sessions    int   `json:"sessions"`
	MessagesIn  int64 `json:"messages_in"`
	MessagesOut int64 `json:"messages_out"`
}

type CacheStatsResponse struct {
	Hits   int64   `json:"hits"`
	Misses int64   `json:"misses"`
	Ratio  float64 `json:"hit_ratio"`
}

type GoStatsResponse struct {
	Goroutines  int     `json:"goroutines"`
	HeapAlloc   uint64  `json:"heap_alloc_bytes"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	NumGC       uint32  `json:"num_gc"`
	GoVersion   string  `json:"go_version"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.stats.IncRequests()
	uptime := time.Since(h.stats.startTime)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	response := StatsResponse{
		Server: ServerStatsResponse{
			Uptime:        uptime.Round(time.Second).String(),
			UptimeSeconds: uptime.Seconds(),
			StartTime:     h.stats.startTime,
			RequestCount:  h.stats.requestCount.Load(),
			RateLimited:   h.stats.rateLimited.Load(),
		},
		Projects: ProjectStatsResponse{
			Projects: h.store.Count(),
			Circuits: h.store.CircuitCount(),
		},
		WebSocket: WebSocketStatsResponse{
			Connections: h.stats.wsConnections.Load(),
			Sessions:    h.hub.SessionCount(),
			MessagesIn:  h.stats.wsMessagesIn.Load(),
			MessagesOut: h.stats.wsMessagesOut.Load(),
		},
		Go: GoStatsResponse{
			Goroutines:  runtime.NumGoroutine(),
			HeapAlloc:   mem.HeapAlloc,
			HeapAllocMB: float64(mem.HeapAlloc) / 1024 / 1024,
			NumGC:       mem.NumGC,
			GoVersion:   runtime.Version(),
		},
	}

	if h.cacheStats != nil {
		hits, misses := h.cacheStats()
		var ratio float64
		if total := hits + misses; total > 0 {
			ratio = float64(hits) / float64(total)
		}
		response.Cache = &CacheStatsResponse{Hits: hits, Misses: misses, Ratio: ratio}
	}

	w.Header().Set("Cache-Control", "no-cache")
	respondJSON(w, http.StatusOK, response)
}
