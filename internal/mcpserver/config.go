package mcpserver

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Cache settings.
	CacheEnabled       bool
	CacheMaxSize       int
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration

	// MaxInlineSize limits inline migration documents and records, in bytes.
	MaxInlineSize int64

	// Pagination for list results.
	ResultLimit int
	MaxLimit    int

	// StrictTargets is the default for the strict option of convert.
	StrictTargets bool
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from VERS_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		CacheEnabled:       envBool("VERS_CACHE_ENABLED", true),
		CacheMaxSize:       envInt("VERS_CACHE_MAX_SIZE", 10),
		CacheTTL:           envDuration("VERS_CACHE_TTL", 15*time.Minute),
		CacheSweepInterval: envDuration("VERS_CACHE_SWEEP_INTERVAL", 60*time.Second),
		MaxInlineSize:      envInt64("VERS_MAX_INLINE_SIZE", 10*1024*1024),
		ResultLimit:        envInt("VERS_RESULT_LIMIT", 100),
		MaxLimit:           envInt("VERS_MAX_LIMIT", 1000),
		StrictTargets:      envBool("VERS_STRICT_TARGETS", false),
	}
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("invalid int64 env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
