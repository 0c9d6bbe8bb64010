package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	LogLevel        slog.Level
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	OSRMURL        string
	OSRMProfile    string
	RoutingTimeout time.Duration

	RedisEnabled      bool
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RouteCacheTTL     time.Duration
	CacheWarmOnStart  bool
	CacheFlushOnStart bool

	RateLimitPerWindow int
	RateLimitWindow    time.Duration
	RateLimitWhitelist []string
	CORSAllowedOrigins []string

	MapCenterLat float64
	MapCenterLng float64
	MapZoom      float64
	WSSendBuffer int
}

func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:        getLogLevelEnv("LOG_LEVEL", slog.LevelInfo),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:     getDurationEnv("READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		OSRMURL:        getEnv("OSRM_URL", "https://router.project-osrm.org"),
		OSRMProfile:    getEnv("OSRM_PROFILE", "driving"),
		RoutingTimeout: getDurationEnv("ROUTING_TIMEOUT", 15*time.Second),

		RedisEnabled:      getBoolEnv("REDIS_ENABLED", false),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getIntEnv("REDIS_DB", 0),
		RouteCacheTTL:     getDurationEnv("ROUTE_CACHE_TTL", 24*time.Hour),
		CacheWarmOnStart:  getBoolEnv("CACHE_WARM_ON_START", false),
		CacheFlushOnStart: getBoolEnv("CACHE_FLUSH_ON_START", false),

		RateLimitPerWindow: getIntEnv("RATE_LIMIT_PER_WINDOW", 30),
		RateLimitWindow:    getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitWhitelist: getCSVEnv("RATE_LIMIT_WHITELIST"),
		CORSAllowedOrigins: getCSVEnv("CORS_ALLOWED_ORIGINS"),

		MapCenterLat: getFloatEnv("MAP_CENTER_LAT", 46.6),
		MapCenterLng: getFloatEnv("MAP_CENTER_LNG", 2.4),
		MapZoom:      getFloatEnv("MAP_ZOOM", 6),
		WSSendBuffer: getIntEnv("WS_SEND_BUFFER", 256),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.OSRMURL == "" {
		return fmt.Errorf("OSRM_URL must not be empty")
	}
	if c.MapCenterLat < -90 || c.MapCenterLat > 90 {
		return fmt.Errorf("MAP_CENTER_LAT out of range: %v", c.MapCenterLat)
	}
	if c.MapCenterLng < -180 || c.MapCenterLng > 180 {
		return fmt.Errorf("MAP_CENTER_LNG out of range: %v", c.MapCenterLng)
	}
	if c.WSSendBuffer <= 0 {
		return fmt.Errorf("WS_SEND_BUFFER must be positive, got %d", c.WSSendBuffer)
	}
	if c.RateLimitPerWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_WINDOW must be positive, got %d", c.RateLimitPerWindow)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getLogLevelEnv(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}

	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultVal
	}
}

func getCSVEnv(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			result = append(result, t)
		}
	}
	return result
}
