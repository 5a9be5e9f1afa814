package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig limits one route. Path is a ServeMux-style pattern whose
// {name} segments match any single path segment.
type EndpointConfig struct {
	Method string
	Path   string
	Limit  int           // requests per Window; 0 means unlimited
	Window time.Duration
	Burst  int // defaults to Limit
}

// burst returns the bucket capacity.
func (e EndpointConfig) burst() int {
	if e.Burst > 0 {
		return e.Burst
	}
	return e.Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled       bool
	DefaultLimit  int
	DefaultWindow time.Duration
	// Client buckets idle for longer than IdleTTL are dropped every
	// CleanupInterval.
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	Endpoints       []EndpointConfig
}

// LoadConfig reads RATE_LIMIT_* variables through getenv, falling back to
// os.Getenv when getenv is nil.
func LoadConfig(getenv func(string) string) *Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := envReader(getenv)

	if !env.bool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    env.int("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   env.duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: env.duration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		IdleTTL:         env.duration("RATE_LIMIT_IDLE_TTL", time.Hour),
		Whitelist:       parseIPList(getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(getenv("RATE_LIMIT_BLACKLIST")),
		Endpoints:       DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-route limits. Starting a batch is
// the expensive call since it may fan out to an LLM; bulk writes come next.
// Reads fall through to the default limit and /health is never limited.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Method: "POST", Path: "/batches", Limit: 20, Window: time.Minute, Burst: 5},
		{Method: "POST", Path: "/selection/screen", Limit: 20, Window: time.Minute, Burst: 5},

		{Method: "POST", Path: "/candidates", Limit: 60, Window: time.Minute, Burst: 10},
		{Method: "POST", Path: "/candidates/move", Limit: 120, Window: time.Minute, Burst: 20},
		{Method: "POST", Path: "/selection/move", Limit: 120, Window: time.Minute, Burst: 20},
		{Method: "POST", Path: "/folders", Limit: 60, Window: time.Minute, Burst: 10},
		{Method: "PATCH", Path: "/folders/{id}", Limit: 60, Window: time.Minute, Burst: 10},
		{Method: "DELETE", Path: "/folders/{id}", Limit: 30, Window: time.Minute, Burst: 5},

		{Method: "GET", Path: "/health"},
	}
}

type envReader func(string) string

func (get envReader) int(key string, def int) int {
	if v, err := strconv.Atoi(get(key)); err == nil {
		return v
	}
	return def
}

func (get envReader) bool(key string, def bool) bool {
	if v, err := strconv.ParseBool(get(key)); err == nil {
		return v
	}
	return def
}

func (get envReader) duration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(get(key)); err == nil {
		return v
	}
	return def
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
