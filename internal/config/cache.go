package config

import "time"

// CacheConfig configures the Redis response cache in front of the course
// catalog.  Only GET responses are cached.  Availability is never cached
// here: it must go through the provider adapters so the price cache sees
// every quoted price.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int // larger responses are served but not stored
}

// LoadCacheConfig reads the CATALOG_CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CATALOG_CACHE_ENABLED", true),
		TTL:          envDur("CATALOG_CACHE_TTL", 5*time.Minute),
		Prefix:       envStr("CATALOG_CACHE_PREFIX", "teetime:catalog"),
		MaxBodyBytes: envInt("CATALOG_CACHE_MAX_BODY_BYTES", 256<<10),
	}
	if cfg.TTL <= 0 {
		cfg.Enabled = false
	}
	return cfg
}
