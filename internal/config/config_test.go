package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "bogus")
	t.Setenv("RATE_LIMIT_KEY_STRATEGY", "everything")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 3*time.Second, cfg.RefillInterval)
	assert.Equal(t, KeyByIPRoute, cfg.KeyStrategy)
	assert.Equal(t, 6*time.Second, cfg.TTL)
}

func TestRateLimitConfig_Login(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "off")

	login := LoadRateLimitConfig().Login()
	assert.False(t, login.Enabled)
	assert.Equal(t, 5, login.Capacity)
	assert.Equal(t, time.Minute, login.RefillInterval)
	assert.Equal(t, KeyByIP, login.KeyStrategy)
	assert.Equal(t, "teetime:rl:login", login.Prefix)
	assert.Equal(t, 10*time.Minute, login.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.TTL)

	t.Setenv("CATALOG_CACHE_TTL", "0s")
	assert.False(t, LoadCacheConfig().Enabled)
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TLS", "true")

	opts, err := redisOptions()
	assert.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.NotNil(t, opts.TLSConfig)
	assert.Equal(t, 500*time.Millisecond, opts.ReadTimeout)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	opts, err = redisOptions()
	assert.NoError(t, err)
	assert.Equal(t, "redis:6379", opts.Addr)

	t.Setenv("REDIS_URL", "redis://:pw@r.example:7000/3")
	opts, err = redisOptions()
	assert.NoError(t, err)
	assert.Equal(t, "r.example:7000", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)

	t.Setenv("REDIS_URL", "mysql://nope")
	_, err = redisOptions()
	assert.Error(t, err)
}

func TestNewRedisClient_Disabled(t *testing.T) {
	t.Setenv("REDIS_DISABLED", "1")
	assert.Nil(t, NewRedisClient())
}
