package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Rate-limit key strategies understood by middleware.NewTokenBucket.
const (
	KeyByIP      = "ip"       // one bucket per client address
	KeyByIPRoute = "ip_route" // one bucket per client address and route
	KeyBySubject = "subject"  // one bucket per authenticated subject
)

// RateLimitConfig configures a token bucket kept in Redis so every
// instance shares it.  Booking writes (order items, confirm, checkout)
// get the general bucket; the admin login gets the stricter one from
// Login().
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int // burst size
	RefillTokens   int // tokens added per RefillInterval
	RefillInterval time.Duration
	TTL            time.Duration // idle buckets expire after this
	KeyStrategy    string
	Prefix         string
	Debug          bool // adds X-RateLimit-Key and logs rejections
}

// LoadRateLimitConfig reads the RATE_LIMIT_* variables.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 20),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 3*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", KeyByIPRoute),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "teetime:rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}.normalized()
}

// Login derives the bucket guarding POST /v1/admin/login: a handful of
// attempts per address, one more each minute.
func (c RateLimitConfig) Login() RateLimitConfig {
	c.Capacity = envInt("RATE_LIMIT_LOGIN_CAPACITY", 5)
	c.RefillTokens = 1
	c.RefillInterval = envDur("RATE_LIMIT_LOGIN_REFILL_INTERVAL", time.Minute)
	c.KeyStrategy = KeyByIP
	c.Prefix += ":login"
	return c.normalized()
}

func (c RateLimitConfig) normalized() RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	// a bucket must outlive a full refill or it resets to full early
	full := time.Duration(c.Capacity/c.RefillTokens+1) * c.RefillInterval
	if c.TTL < full {
		c.TTL = full
	}
	switch c.KeyStrategy {
	case KeyByIP, KeyByIPRoute, KeyBySubject:
	default:
		c.KeyStrategy = KeyByIPRoute
	}
	return c
}

func envStr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(envStr(k, "")); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(envStr(k, "")); err == nil {
		return dur
	}
	return d
}
